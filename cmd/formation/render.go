package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/tmoosting/tactical-tangle/internal/util"
	"github.com/tmoosting/tactical-tangle/pkg/core"
)

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	warnColor  = color.New(color.FgYellow, color.Bold)
)

func printUnits(w io.Writer, player string, units []core.Unit) {
	titleColor.Fprintf(w, "\n%s: %d unit(s)\n", player, len(units))
	if len(units) == 0 {
		return
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"ID", "Name", "Type", "Soldiers", "Grid", "Position", "Cost", "General", "Characters"}),
	)
	for _, u := range units {
		general := u.General
		if general == "" {
			general = "-"
		}
		row := []string{
			u.ID,
			u.Name,
			string(u.Type),
			fmt.Sprintf("%d", u.SoldierCount),
			fmt.Sprintf("%dx%d", u.Formation.Width, u.Formation.Depth),
			fmt.Sprintf("%.0f,%.0f", u.Position.X, u.Position.Y),
			fmt.Sprintf("%d", u.Cost),
			general,
			strings.Join(u.Soldiers, " "),
		}
		table.Append(row)
	}
	table.Render()
}

func printStats(w io.Writer, player string, s core.ArmyStats) {
	titleColor.Fprintf(w, "\n%s\n", player)

	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Type", "Units"}),
	)
	for _, t := range core.AllUnitTypes() {
		table.Append([]string{string(t), fmt.Sprintf("%d", s.UnitsByType[t])})
	}
	table.Render()

	fmt.Fprintf(w, "   Units: %d\n", s.TotalUnits)
	fmt.Fprintf(w, "   Soldiers: %d\n", s.TotalSoldiers)
	fmt.Fprintf(w, "   Generals: %d, characters: %d\n", s.GeneralsAssigned, s.CharactersAssigned)
	if s.OverBudget {
		warnColor.Fprintf(w, "   Points: %s (over budget)\n", util.FormatPoints(s.UsedPoints, s.MaxPoints))
		return
	}
	fmt.Fprintf(w, "   Points: %s\n", util.FormatPoints(s.UsedPoints, s.MaxPoints))
}

func printRoster(w io.Writer, chars []core.Character, free map[string]bool) {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"ID", "Name", "Description", "Status"}),
	)
	for _, c := range chars {
		status := "assigned"
		if free[c.ID] {
			status = "free"
		}
		table.Append([]string{c.ID, c.Name, c.Description, status})
	}
	table.Render()
}
