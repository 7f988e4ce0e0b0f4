// Package scan aggregates access point sightings streamed by a dmxbox into a
// deduplicated list ranked by signal strength, and reference counts the
// device scan so several observers share one start-scan/stop-scan pair.
package scan
