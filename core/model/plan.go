package model

import (
	"fmt"
	"time"
)

// ChargeType tags a plan segment with the rationale that produced it.
type ChargeType string

const (
	ChargeCalibrate ChargeType = "calibrate"
	ChargeMinimum   ChargeType = "minimum"
	ChargeTrip      ChargeType = "trip"
	ChargeRoutine   ChargeType = "routine"
	ChargePrefered  ChargeType = "prefered"
	ChargeFill      ChargeType = "fill"
)

// Priority orders charge types for reconciliation tie-breaking; lower wins.
func (t ChargeType) Priority() int {
	switch t {
	case ChargeCalibrate:
		return 0
	case ChargeMinimum:
		return 1
	case ChargeTrip:
		return 2
	case ChargeRoutine:
		return 3
	case ChargePrefered:
		return 4
	case ChargeFill:
		return 5
	}
	return 6
}

// Valid reports whether t is a known charge type.
func (t ChargeType) Valid() bool { return t.Priority() < 6 }

// ChargePlanSegment is one element of a vehicle's charge plan. A nil
// ChargeStart means "start now", a nil ChargeStop means "until done".
type ChargePlanSegment struct {
	ChargeStart *time.Time `json:"chargeStart"`
	ChargeStop  *time.Time `json:"chargeStop"`
	Level       int        `json:"level"`
	ChargeType  ChargeType `json:"chargeType"`
	Comment     string     `json:"comment"`
}

// StartsBefore compares segment starts treating nil as -inf.
func (s ChargePlanSegment) StartsBefore(ts time.Time) bool {
	return s.ChargeStart == nil || s.ChargeStart.Before(ts)
}

func (s ChargePlanSegment) String() string {
	fmtTime := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.Format("15:04")
	}
	return fmt.Sprintf("%s[%s..%s %d%%]", s.ChargeType, fmtTime(s.ChargeStart), fmtTime(s.ChargeStop), s.Level)
}

// ChargePlan is the ordered, conflict-free sequence of segments published on
// the vehicle row. A nil plan means no action required.
type ChargePlan []ChargePlanSegment

// Clone returns a copy safe to mutate.
func (p ChargePlan) Clone() ChargePlan {
	if p == nil {
		return nil
	}
	out := make(ChargePlan, len(p))
	copy(out, p)
	return out
}
