package tasks

import (
	"context"
	"fmt"
	"time"
)

// The built-in jobs are placeholders exercising the dispatch contract:
// sleep for the simulated latency, then report completion.

const (
	JobReport       = "report"
	JobProcessImage = "process-image"
)

// ReportJob simulates report generation.
func ReportJob(latency time.Duration) JobFunc {
	return func(ctx context.Context, args map[string]string) (string, error) {
		reportID := args["report_id"]
		if reportID == "" {
			reportID = "default_report"
		}
		if err := sleep(ctx, latency); err != nil {
			return "", err
		}
		return fmt.Sprintf("Report %s generated.", reportID), nil
	}
}

// ProcessImageJob simulates image processing.
func ProcessImageJob(latency time.Duration) JobFunc {
	return func(ctx context.Context, args map[string]string) (string, error) {
		imagePath := args["image_path"]
		if imagePath == "" {
			imagePath = "/default/path/image.jpg"
		}
		if err := sleep(ctx, latency); err != nil {
			return "", err
		}
		return fmt.Sprintf("Image at %s processed.", imagePath), nil
	}
}

// RegisterBuiltins wires the two demo jobs with their latencies.
func RegisterBuiltins(d *Dispatcher, reportLatency, imageLatency time.Duration) {
	d.Register(JobReport, ReportJob(reportLatency))
	d.Register(JobProcessImage, ProcessImageJob(imageLatency))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
