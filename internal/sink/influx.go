package sink

import (
	"context"
	"fmt"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/tejusbharadwaj/renugrid/internal/models"
)

const influxMeasurement = "power_telemetry"

// InfluxConfig locates the bucket samples are written to.
type InfluxConfig struct {
	URL       string
	Token     string
	Org       string
	Bucket    string
	ChannelID int64
}

type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// InfluxWriter writes samples to InfluxDB 2.x.
type InfluxWriter struct {
	client  influxdb2.Client
	api     pointWriter
	channel string
}

// NewInfluxWriter creates a blocking write client. Call Close when done.
func NewInfluxWriter(cfg InfluxConfig) *InfluxWriter {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &InfluxWriter{
		client:  client,
		api:     client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		channel: strconv.FormatInt(cfg.ChannelID, 10),
	}
}

func (w *InfluxWriter) Name() string { return "influx" }

// Health checks that InfluxDB is reachable and the token is valid.
func (w *InfluxWriter) Health(ctx context.Context) error {
	_, err := w.client.Health(ctx)
	return err
}

func (w *InfluxWriter) Record(ctx context.Context, samples []models.Sample) error {
	points := make([]*write.Point, 0, len(samples))
	for _, s := range samples {
		points = append(points, samplePoint(w.channel, s))
	}
	if err := w.api.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("influx write: %w", err)
	}
	return nil
}

func (w *InfluxWriter) Close() error {
	if w.client != nil {
		w.client.Close()
	}
	return nil
}

func samplePoint(channel string, s models.Sample) *write.Point {
	pointTime := s.Time()
	if pointTime.IsZero() {
		pointTime = time.Now()
	}
	return influxdb2.NewPointWithMeasurement(influxMeasurement).
		AddTag("channel", channel).
		AddField("voltage", s.Voltage).
		AddField("current_ma", s.CurrentMilliamps).
		AddField("power_mw", s.PowerMilliwatts).
		AddField("entry_id", s.EntryID).
		SetTime(pointTime)
}
