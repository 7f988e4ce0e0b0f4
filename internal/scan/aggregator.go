package scan

import (
	"sort"
	"sync"

	"github.com/muurk/dmxbox/internal/deviceconfig"
)

// Sighting is one access point report received from the device.
type Sighting struct {
	SSID     string                `json:"ssid"`
	MAC      string                `json:"mac"`
	RSSI     int                   `json:"rssi"`
	AuthMode deviceconfig.AuthMode `json:"authMode"`
}

// DiscoveredNetwork is the strongest sighting seen for one SSID.
type DiscoveredNetwork struct {
	SSID     string
	BestRSSI int
	AuthMode deviceconfig.AuthMode
}

// State maps SSID to its best sighting.
type State map[string]DiscoveredNetwork

// Fold returns state with s applied. The input map is never modified; when
// s does not change anything the same map is returned.
//
// A sighting replaces the stored entry only if its RSSI is strictly
// stronger, in which case its auth mode wins too.
func Fold(state State, s Sighting) State {
	if cur, ok := state[s.SSID]; ok && s.RSSI <= cur.BestRSSI {
		return state
	}
	next := make(State, len(state)+1)
	for k, v := range state {
		next[k] = v
	}
	next.apply(s)
	return next
}

// apply folds s into st in place and reports whether st changed.
func (st State) apply(s Sighting) bool {
	if cur, ok := st[s.SSID]; ok && s.RSSI <= cur.BestRSSI {
		return false
	}
	st[s.SSID] = DiscoveredNetwork{SSID: s.SSID, BestRSSI: s.RSSI, AuthMode: s.AuthMode}
	return true
}

// Ranked returns the networks strongest first. Equal RSSI is ordered by SSID
// so repeated renders do not reshuffle.
func Ranked(state State) []DiscoveredNetwork {
	out := make([]DiscoveredNetwork, 0, len(state))
	for _, n := range state {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BestRSSI != out[j].BestRSSI {
			return out[i].BestRSSI > out[j].BestRSSI
		}
		return out[i].SSID < out[j].SSID
	})
	return out
}

// Aggregator owns the state of one scan window.
type Aggregator struct {
	mu         sync.Mutex
	generation uint64
	state      State
	folded     int
}

// NewAggregator returns an empty aggregator for the given window.
func NewAggregator(generation uint64) *Aggregator {
	return &Aggregator{generation: generation, state: State{}}
}

// Generation identifies the scan window this aggregator belongs to.
func (a *Aggregator) Generation() uint64 {
	return a.generation
}

// Add folds s and reports whether the ranked list changed.
func (a *Aggregator) Add(s Sighting) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.folded++
	return a.state.apply(s)
}

// Ranked returns the current list, strongest first.
func (a *Aggregator) Ranked() []DiscoveredNetwork {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Ranked(a.state)
}

// Len is the number of distinct SSIDs seen.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.state)
}

// Folded is the number of sightings processed, including ones that did not
// change the list.
func (a *Aggregator) Folded() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.folded
}
