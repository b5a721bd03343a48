// Package curve learns, per vehicle and location, how many seconds each
// battery percent takes to gain, and answers duration queries for the
// planner. Samples feed in from live charge sessions via the telemetry
// ingestor.
package curve

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/voltplan/voltplan/core/model"
)

// Advance folds one telemetry sample into the learner scratch row. It
// returns the updated row and, when the sample completed a reliable 1%
// gain, the curve point to persist.
//
// Gains larger than one percent are discarded: the vehicle was offline in
// between and the window no longer measures a single percent. The first
// observed gain of a charge is discarded too, the reported start level is
// truncated to an integer so its window is short by an unknown amount.
func Advance(cc model.ChargeCurrent, chargeStartLevel, level int, powerW float64, addedWm float64, outsideDeciTemp int, now time.Time) (model.ChargeCurrent, *model.ChargeCurvePoint) {
	cc.Powers = append(cc.Powers, powerW)
	cc.OutsideDeciTemps = append(cc.OutsideDeciTemps, outsideDeciTemp)

	if level <= cc.StartLevel {
		return cc, nil
	}

	gained := level - cc.StartLevel
	firstGain := cc.StartLevel == chargeStartLevel

	var point *model.ChargeCurvePoint
	if gained == 1 && !firstGain {
		duration := int(now.Sub(cc.StartTs) / time.Second)
		avgPower := stat.Mean(cc.Powers, nil)
		temps := make([]float64, len(cc.OutsideDeciTemps))
		for i, t := range cc.OutsideDeciTemps {
			temps[i] = float64(t)
		}
		// VehicleID and LocationID are filled in by the caller, which
		// knows the charge context.
		point = &model.ChargeCurvePoint{
			Level:       cc.StartLevel,
			Duration:    duration,
			AvgDeciTemp: int(stat.Mean(temps, nil)),
			EnergyUsed:  avgPower * float64(duration) / 60,
			EnergyAdded: addedWm - cc.StartAdded,
		}
	}

	cc.StartTs = now
	cc.StartLevel = level
	cc.StartAdded = addedWm
	cc.Powers = nil
	cc.OutsideDeciTemps = nil
	return cc, point
}
