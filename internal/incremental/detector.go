// Package incremental detects which documents of a tree changed since the
// previous scan, using content fingerprints.
package incremental

import (
	"context"
	"log/slog"
	"sort"

	"git.home.luguber.info/inful/devflow/internal/docs"
	"git.home.luguber.info/inful/devflow/internal/logfields"
)

// State maps a relative document path to the fingerprint recorded for it.
// It is owned by the caller; an empty State makes every document new.
type State map[string]string

// Clone returns an independent copy.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// ChangeSet is the outcome of one detection pass.
type ChangeSet struct {
	// Changed holds new documents and documents whose fingerprint differs.
	Changed []string
	// Removed holds recorded documents that no longer exist.
	Removed []string
	// Unreadable documents are excluded from Changed and keep their record.
	Unreadable []docs.ScanError
	// Scan is the full discovery result the change set was computed from.
	Scan *docs.Scan
}

// Empty reports whether nothing changed or disappeared.
func (c *ChangeSet) Empty() bool {
	return len(c.Changed) == 0 && len(c.Removed) == 0
}

// Starts returns Changed followed by Removed, the seeds for affected-set
// resolution.
func (c *ChangeSet) Starts() []string {
	out := make([]string, 0, len(c.Changed)+len(c.Removed))
	out = append(out, c.Changed...)
	return append(out, c.Removed...)
}

// Detector compares scans of a tree against a State.
type Detector struct {
	rules docs.Rules
	state State
}

// NewDetector creates a detector over state. A nil state starts empty.
func NewDetector(rules docs.Rules, state State) *Detector {
	if state == nil {
		state = State{}
	}
	return &Detector{rules: rules, state: state}
}

// State exposes the detector's state. It is updated by every Detect call.
func (d *Detector) State() State {
	return d.state
}

// Reset forgets every recorded fingerprint so the next pass reports the
// whole tree as changed.
func (d *Detector) Reset() {
	clear(d.state)
}

// Detect scans root and returns what changed. Before returning, the state
// records the fingerprint of every scanned document and drops entries of
// removed ones, so an immediate second call reports nothing.
func (d *Detector) Detect(ctx context.Context, root string) (*ChangeSet, error) {
	scan, err := docs.Discover(ctx, root, d.rules)
	if err != nil {
		return nil, err
	}

	cs := &ChangeSet{Unreadable: scan.Unreadable, Scan: scan}
	present := make(map[string]struct{}, len(scan.Documents)+len(scan.Unreadable))

	for _, doc := range scan.Documents {
		present[doc.Path] = struct{}{}
		if prev, ok := d.state[doc.Path]; !ok || prev != doc.Fingerprint {
			cs.Changed = append(cs.Changed, doc.Path)
		}
		d.state[doc.Path] = doc.Fingerprint
	}
	for _, u := range scan.Unreadable {
		present[u.Path] = struct{}{}
	}

	for p := range d.state {
		if _, ok := present[p]; !ok {
			cs.Removed = append(cs.Removed, p)
			delete(d.state, p)
		}
	}
	sort.Strings(cs.Removed)

	if !cs.Empty() {
		slog.Debug("Changes detected",
			logfields.Path(root),
			logfields.Changed(len(cs.Changed)),
			logfields.Removed(len(cs.Removed)))
	}
	return cs, nil
}
