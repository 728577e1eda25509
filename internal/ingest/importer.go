package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/jose/sera/backend/internal/contracts"
	"github.com/jose/sera/backend/internal/external/whoop"
	"github.com/jose/sera/backend/internal/merge"
	"github.com/jose/sera/backend/pkg/logger"
)

const (
	milliPerHour   = 3_600_000.0
	milliPerMinute = 60_000.0
)

// Importer pulls one day of wearable data from the WHOOP API, stores the
// raw records in the warehouse, derives the per-date summary row, and
// re-merges the day's snapshot.
type Importer struct {
	client    *whoop.Client
	warehouse contracts.WarehouseRepository
	wearables contracts.WearableRepository
	merger    *merge.Engine
	logger    *logger.Logger
}

// New creates an importer.
func New(
	client *whoop.Client,
	warehouse contracts.WarehouseRepository,
	wearables contracts.WearableRepository,
	merger *merge.Engine,
	log *logger.Logger,
) *Importer {
	return &Importer{
		client:    client,
		warehouse: warehouse,
		wearables: wearables,
		merger:    merger,
		logger:    log,
	}
}

// ImportDate imports all wearable data for one calendar date and returns
// the derived daily summary. Returns (nil, nil) when the upstream API has
// no records for the date.
func (im *Importer) ImportDate(ctx context.Context, date time.Time) (*contracts.WearableDaily, error) {
	day := merge.Day(date)
	start, end := whoop.DayWindow(day)

	recoveries, err := im.client.GetRecoveries(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch recoveries: %w", err)
	}
	sleeps, err := im.client.GetSleeps(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch sleeps: %w", err)
	}
	cycles, err := im.client.GetCycles(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch cycles: %w", err)
	}
	workouts, err := im.client.GetWorkouts(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch workouts: %w", err)
	}

	if len(recoveries) == 0 && len(sleeps) == 0 && len(cycles) == 0 && len(workouts) == 0 {
		im.logger.WithField("date", day.Format("2006-01-02")).Info("No wearable data for date")
		return nil, nil
	}

	if err := im.storeWarehouse(ctx, day, recoveries, sleeps, cycles, workouts); err != nil {
		return nil, err
	}

	daily := buildDailySummary(day, recoveries, sleeps, cycles)
	if err := im.wearables.Upsert(ctx, daily); err != nil {
		return nil, fmt.Errorf("upsert daily summary: %w", err)
	}

	if _, err := im.merger.MergeForDate(ctx, day); err != nil {
		return nil, fmt.Errorf("merge snapshot: %w", err)
	}

	im.logger.WithFields(map[string]interface{}{
		"date":       day.Format("2006-01-02"),
		"recoveries": len(recoveries),
		"sleeps":     len(sleeps),
		"cycles":     len(cycles),
		"workouts":   len(workouts),
	}).Info("Wearable import complete")

	return daily, nil
}

// ImportRange imports every date in [from, to] inclusive, continuing past
// empty days. Returns the count of days that had data.
func (im *Importer) ImportRange(ctx context.Context, from, to time.Time) (int, error) {
	imported := 0
	for day := merge.Day(from); !day.After(merge.Day(to)); day = day.AddDate(0, 0, 1) {
		daily, err := im.ImportDate(ctx, day)
		if err != nil {
			return imported, fmt.Errorf("import %s: %w", day.Format("2006-01-02"), err)
		}
		if daily != nil {
			imported++
		}
	}
	return imported, nil
}

func (im *Importer) storeWarehouse(
	ctx context.Context,
	day time.Time,
	recoveries []whoop.Recovery,
	sleeps []whoop.Sleep,
	cycles []whoop.Cycle,
	workouts []whoop.Workout,
) error {
	for _, rec := range recoveries {
		row := &contracts.WearableRecovery{
			Date:         day,
			CycleID:      rec.CycleID,
			SleepID:      rec.SleepID,
			UserID:       rec.UserID,
			APICreatedAt: whoop.ParseTime(rec.CreatedAt),
			APIUpdatedAt: whoop.ParseTime(rec.UpdatedAt),
			RawPayload:   rec.Raw,
		}
		if rec.Score != nil {
			row.RecoveryScore = rec.Score.RecoveryScore
			row.RestingHeartRate = rec.Score.RestingHeartRate
			row.HRVRmssdMilli = rec.Score.HRVRmssdMilli
			row.SpO2Percentage = rec.Score.SpO2Percentage
			row.SkinTempCelsius = rec.Score.SkinTempCelsius
			row.UserCalibrating = rec.Score.UserCalibrating
		}
		if err := im.warehouse.UpsertRecovery(ctx, row); err != nil {
			return fmt.Errorf("upsert recovery: %w", err)
		}
	}

	for _, sl := range sleeps {
		row := &contracts.WearableSleepActivity{
			SleepID:        sl.ID,
			CycleID:        sl.CycleID,
			UserID:         sl.UserID,
			Date:           day,
			Start:          whoop.ParseTime(sl.Start),
			End:            whoop.ParseTime(sl.End),
			TimezoneOffset: sl.TimezoneOffset,
			Nap:            sl.Nap,
			ScoreState:     sl.ScoreState,
			APICreatedAt:   whoop.ParseTime(sl.CreatedAt),
			APIUpdatedAt:   whoop.ParseTime(sl.UpdatedAt),
			RawPayload:     sl.Raw,
		}
		if sl.Score != nil {
			row.RespiratoryRate = sl.Score.RespiratoryRate
			row.SleepPerformancePercentage = sl.Score.SleepPerformancePercentage
			row.SleepConsistencyPercentage = sl.Score.SleepConsistencyPercentage
			row.SleepEfficiencyPercentage = sl.Score.SleepEfficiencyPercentage
			if ss := sl.Score.StageSummary; ss != nil {
				row.TotalInBedTimeMilli = ss.TotalInBedTimeMilli
				row.TotalAwakeTimeMilli = ss.TotalAwakeTimeMilli
				row.TotalNoDataTimeMilli = ss.TotalNoDataTimeMilli
				row.TotalLightSleepTimeMilli = ss.TotalLightSleepTimeMilli
				row.TotalSlowWaveSleepTimeMilli = ss.TotalSlowWaveSleepTimeMilli
				row.TotalREMSleepTimeMilli = ss.TotalREMSleepTimeMilli
				row.SleepCycleCount = ss.SleepCycleCount
				row.DisturbanceCount = ss.DisturbanceCount
			}
		}
		if err := im.warehouse.UpsertSleepActivity(ctx, row); err != nil {
			return fmt.Errorf("upsert sleep activity: %w", err)
		}
	}

	for _, cy := range cycles {
		row := &contracts.WearableCycle{
			Date:           day,
			CycleID:        cy.ID,
			UserID:         cy.UserID,
			Start:          whoop.ParseTime(cy.Start),
			End:            whoop.ParseTime(cy.End),
			TimezoneOffset: cy.TimezoneOffset,
			ScoreState:     cy.ScoreState,
			APICreatedAt:   whoop.ParseTime(cy.CreatedAt),
			APIUpdatedAt:   whoop.ParseTime(cy.UpdatedAt),
			RawPayload:     cy.Raw,
		}
		if cy.Score != nil {
			row.Strain = cy.Score.Strain
			row.Kilojoule = cy.Score.Kilojoule
			row.AverageHeartRate = cy.Score.AverageHeartRate
			row.MaxHeartRate = cy.Score.MaxHeartRate
		}
		if err := im.warehouse.UpsertCycle(ctx, row); err != nil {
			return fmt.Errorf("upsert cycle: %w", err)
		}
	}

	for _, wo := range workouts {
		row := &contracts.WearableWorkout{
			WorkoutID:      wo.ID,
			UserID:         wo.UserID,
			Date:           day,
			SportName:      wo.SportName,
			ScoreState:     wo.ScoreState,
			Start:          whoop.ParseTime(wo.Start),
			End:            whoop.ParseTime(wo.End),
			TimezoneOffset: wo.TimezoneOffset,
			APICreatedAt:   whoop.ParseTime(wo.CreatedAt),
			APIUpdatedAt:   whoop.ParseTime(wo.UpdatedAt),
			RawPayload:     wo.Raw,
		}
		if wo.Score != nil {
			row.Strain = wo.Score.Strain
			row.AverageHeartRate = wo.Score.AverageHeartRate
			row.MaxHeartRate = wo.Score.MaxHeartRate
			row.Kilojoule = wo.Score.Kilojoule
			row.DistanceMeter = wo.Score.DistanceMeter
		}
		if err := im.warehouse.UpsertWorkout(ctx, row); err != nil {
			return fmt.Errorf("upsert workout: %w", err)
		}
	}

	return nil
}

// buildDailySummary condenses the day's raw records into one summary row.
//
// Sleep metrics come from non-nap sleeps only: total hours and disturbance
// counts are summed across them, while percentage scores come from the
// longest one (the main sleep). Strain is the day's maximum cycle strain.
func buildDailySummary(
	day time.Time,
	recoveries []whoop.Recovery,
	sleeps []whoop.Sleep,
	cycles []whoop.Cycle,
) *contracts.WearableDaily {
	daily := &contracts.WearableDaily{Date: day}

	for _, rec := range recoveries {
		if rec.Score == nil {
			continue
		}
		if rec.Score.RecoveryScore != nil {
			score := int(math.Round(*rec.Score.RecoveryScore))
			daily.RecoveryScore = &score
		}
		daily.HRVMs = rec.Score.HRVRmssdMilli
		daily.RHRBpm = rec.Score.RestingHeartRate
		daily.SpO2Pct = rec.Score.SpO2Percentage
		break
	}

	var (
		totalInBedMilli int64
		totalDeepMilli  int64
		totalREMMilli   int64
		disturbances    int
		haveSleep       bool
		haveStages      bool
		haveDisturb     bool
		mainSleep       *whoop.Sleep
		mainInBed       int64
	)
	for i := range sleeps {
		sl := &sleeps[i]
		if sl.Nap != nil && *sl.Nap {
			continue
		}
		if sl.Score == nil || sl.Score.StageSummary == nil {
			continue
		}
		ss := sl.Score.StageSummary
		if ss.TotalInBedTimeMilli != nil {
			totalInBedMilli += *ss.TotalInBedTimeMilli
			haveSleep = true
			if *ss.TotalInBedTimeMilli >= mainInBed {
				mainInBed = *ss.TotalInBedTimeMilli
				mainSleep = sl
			}
		}
		if ss.TotalSlowWaveSleepTimeMilli != nil {
			totalDeepMilli += *ss.TotalSlowWaveSleepTimeMilli
			haveStages = true
		}
		if ss.TotalREMSleepTimeMilli != nil {
			totalREMMilli += *ss.TotalREMSleepTimeMilli
			haveStages = true
		}
		if ss.DisturbanceCount != nil {
			disturbances += *ss.DisturbanceCount
			haveDisturb = true
		}
	}

	if haveSleep {
		hours := round2(float64(totalInBedMilli) / milliPerHour)
		daily.SleepHours = &hours
	}
	if haveStages {
		deep := round2(float64(totalDeepMilli) / milliPerMinute)
		rem := round2(float64(totalREMMilli) / milliPerMinute)
		daily.DeepSleepMin = &deep
		daily.REMSleepMin = &rem
	}
	if haveDisturb {
		daily.SleepDisturbanceCount = &disturbances
	}
	if mainSleep != nil && mainSleep.Score != nil {
		daily.SleepEfficiencyPct = mainSleep.Score.SleepEfficiencyPercentage
		daily.SleepConsistencyPct = mainSleep.Score.SleepConsistencyPercentage
		daily.RespiratoryRate = mainSleep.Score.RespiratoryRate
	}

	for _, cy := range cycles {
		if cy.Score == nil {
			continue
		}
		if cy.Score.Strain != nil && (daily.Strain == nil || *cy.Score.Strain > *daily.Strain) {
			strain := *cy.Score.Strain
			daily.Strain = &strain
		}
		if cy.Score.AverageHeartRate != nil && daily.AvgHRDay == nil {
			hr := *cy.Score.AverageHeartRate
			daily.AvgHRDay = &hr
		}
	}

	daily.RawPayload = rawSummaryPayload(recoveries, sleeps, cycles)
	return daily
}

// rawSummaryPayload bundles the contributing raw records so the summary
// row keeps its provenance.
func rawSummaryPayload(recoveries []whoop.Recovery, sleeps []whoop.Sleep, cycles []whoop.Cycle) []byte {
	bundle := map[string][]json.RawMessage{}
	for _, rec := range recoveries {
		bundle["recovery"] = append(bundle["recovery"], rec.Raw)
	}
	for _, sl := range sleeps {
		bundle["sleep"] = append(bundle["sleep"], sl.Raw)
	}
	for _, cy := range cycles {
		bundle["cycle"] = append(bundle["cycle"], cy.Raw)
	}
	if len(bundle) == 0 {
		return nil
	}
	payload, err := json.Marshal(bundle)
	if err != nil {
		return nil
	}
	return payload
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
