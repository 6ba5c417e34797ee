// Package influx writes editor telemetry points to InfluxDB, falling back
// to a gzipped line-protocol file when the server is unreachable.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"

	"github.com/tmoosting/tactical-tangle/internal/config"
	"github.com/tmoosting/tactical-tangle/pkg/core"
)

// MeasurementCommit is written once per committed unit mutation.
const MeasurementCommit = "unit_commit"

// ErrDisabled is returned by Connect when influx.enabled is false.
var ErrDisabled = errors.New("influx telemetry disabled")

// Manager handles InfluxDB connections and writes.
type Manager struct {
	Client       influxdb2.Client
	Writer       influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	Logger       zerolog.Logger
	BackupPath   string

	cfg        config.InfluxConfig
	backupFile *os.File
}

func NewManager(cfg config.InfluxConfig, log zerolog.Logger, backupPath string) *Manager {
	return &Manager{cfg: cfg, Logger: log, BackupPath: backupPath}
}

// Connect pings the server. On failure it opens the backup file instead
// and returns nil, so telemetry never blocks the editor.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.cfg.Enabled {
		return ErrDisabled
	}

	m.Client = influxdb2.NewClientWithOptions(m.cfg.URL(), m.cfg.Token,
		influxdb2.DefaultOptions().SetBatchSize(100).SetFlushInterval(1000))

	running, err := m.Client.Ping(ctx)
	if err != nil || !running {
		m.IsValid = false
		m.Logger.Warn().Err(err).Str("backupPath", m.BackupPath).Msg("InfluxDB unreachable, writing to backup file")
		return m.openBackup()
	}

	if err := m.setupOrganizationAndBucket(ctx); err != nil {
		return err
	}
	m.Writer = m.Client.WriteAPI(m.cfg.Org, m.cfg.Bucket)
	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			m.Logger.Error().Err(writeErr).Str("bucket", m.cfg.Bucket).Msg("Error sending data to InfluxDB")
		}
	}(m.Writer.Errors())

	m.IsValid = true
	m.Logger.Info().Str("url", m.cfg.URL()).Str("bucket", m.cfg.Bucket).Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) openBackup() error {
	if m.BackupPath == "" {
		return errors.New("influxDB unreachable and no backup path set")
	}
	if m.BackupWriter != nil {
		return nil
	}
	file, err := os.OpenFile(m.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	m.backupFile = file
	m.BackupWriter = gzip.NewWriter(file)
	return nil
}

func (m *Manager) setupOrganizationAndBucket(ctx context.Context) error {
	orgs := m.Client.OrganizationsAPI()
	org, err := orgs.FindOrganizationByName(ctx, m.cfg.Org)
	if err != nil {
		m.Logger.Info().Str("org", m.cfg.Org).Msg("Organization not found, creating")
		org, err = orgs.CreateOrganizationWithName(ctx, m.cfg.Org)
		if err != nil {
			return fmt.Errorf("error creating organization %s: %w", m.cfg.Org, err)
		}
	}

	if _, err := m.Client.BucketsAPI().FindBucketByName(ctx, m.cfg.Bucket); err != nil {
		m.Logger.Info().Str("bucket", m.cfg.Bucket).Msg("Bucket not found, creating")
		rule := domain.RetentionRuleTypeExpire
		_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, org, m.cfg.Bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: 60 * 60 * 24 * 30,
		})
		if err != nil {
			return fmt.Errorf("error creating bucket %s: %w", m.cfg.Bucket, err)
		}
	}
	return nil
}

// WritePoint writes a point to InfluxDB or the backup file.
func (m *Manager) WritePoint(point *influxdb2_write.Point) error {
	if m.IsValid {
		m.Writer.WritePoint(point)
		return nil
	}
	if m.BackupWriter == nil {
		return errors.New("influxDB client not initialized and backup writer not available")
	}
	line := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := m.BackupWriter.Write([]byte(line)); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// Close flushes pending points and releases the client and backup file.
func (m *Manager) Close() error {
	if m.Writer != nil {
		m.Writer.Flush()
	}
	if m.Client != nil {
		m.Client.Close()
	}
	var err error
	if m.BackupWriter != nil {
		err = m.BackupWriter.Close()
		m.BackupWriter = nil
	}
	if m.backupFile != nil {
		if cerr := m.backupFile.Close(); err == nil {
			err = cerr
		}
		m.backupFile = nil
	}
	return err
}

// CommitArgs encodes a commit as dispatcher arguments:
// player op unitID type soldierCount cost x y usedPoints.
func CommitArgs(player, op string, u core.Unit, usedPoints int) []string {
	return []string{
		player,
		op,
		u.ID,
		string(u.Type),
		strconv.Itoa(u.SoldierCount),
		strconv.Itoa(u.Cost),
		strconv.FormatFloat(u.Position.X, 'f', -1, 64),
		strconv.FormatFloat(u.Position.Y, 'f', -1, 64),
		strconv.Itoa(usedPoints),
	}
}

// CommitPoint decodes CommitArgs into a unit_commit point with tags and
// fields in key order.
func CommitPoint(args []string, at time.Time) (*influxdb2_write.Point, error) {
	if len(args) != 9 {
		return nil, fmt.Errorf("commit telemetry needs 9 args, got %d", len(args))
	}
	soldiers, err := strconv.Atoi(args[4])
	if err != nil {
		return nil, fmt.Errorf("error converting soldier count '%s' to int: %w", args[4], err)
	}
	cost, err := strconv.Atoi(args[5])
	if err != nil {
		return nil, fmt.Errorf("error converting cost '%s' to int: %w", args[5], err)
	}
	x, err := strconv.ParseFloat(args[6], 64)
	if err != nil {
		return nil, fmt.Errorf("error converting x '%s' to float: %w", args[6], err)
	}
	y, err := strconv.ParseFloat(args[7], 64)
	if err != nil {
		return nil, fmt.Errorf("error converting y '%s' to float: %w", args[7], err)
	}
	used, err := strconv.Atoi(args[8])
	if err != nil {
		return nil, fmt.Errorf("error converting used points '%s' to int: %w", args[8], err)
	}

	p := influxdb2_write.NewPointWithMeasurement(MeasurementCommit).
		AddTag("player", args[0]).
		AddTag("op", args[1]).
		SetTime(at)
	if args[3] != "" {
		p.AddTag("unit_type", args[3])
	}
	p.AddField("unit_id", args[2]).
		AddField("soldier_count", soldiers).
		AddField("cost", cost).
		AddField("x", x).
		AddField("y", y).
		AddField("used_points", used)
	return p.SortTags().SortFields(), nil
}
