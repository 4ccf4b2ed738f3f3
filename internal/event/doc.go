// Package event defines the normalized event record produced by every
// extraction strategy, plus the date and time parsing shared between them.
//
// An Event is immutable once appended to a run's results: strategies build
// it, validate it, and hand it to the coordinator, which only filters and
// sorts. The Date field is the calendar anchor used for window filtering;
// StartTime/EndTime carry the clock when the source exposes one.
package event
