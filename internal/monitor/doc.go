// Package monitor owns the per-guild polling loops.
//
// Each guild gets one recurring arm (immediate cycle, then a fixed interval).
// A cycle fans out one unit per configured server; units run concurrently and
// fail independently. Nothing a unit does can take down a sibling unit,
// another guild's loop, or the process.
package monitor
