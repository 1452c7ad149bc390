package round

// Kind tags the shape of a wheel's entry in a round result.
type Kind int

const (
	// KindSingle entries hold exactly one label.
	KindSingle Kind = iota
	// KindMulti entries hold an ordered list of distinct labels.
	KindMulti
)

// Result is the outcome recorded for one wheel.
//
// Invariant: Kind == KindSingle implies len(Labels) == 1.
type Result struct {
	Wheel  string
	Kind   Kind
	Labels []string
}

// Single builds a single-label entry.
func Single(wheelName, label string) Result {
	return Result{Wheel: wheelName, Kind: KindSingle, Labels: []string{label}}
}

// Multi builds an ordered multi-label entry.
func Multi(wheelName string, labels []string) Result {
	return Result{Wheel: wheelName, Kind: KindMulti, Labels: append([]string(nil), labels...)}
}

// Label returns the label of a single entry, or the first label of a multi entry.
func (r Result) Label() string {
	if len(r.Labels) == 0 {
		return ""
	}
	return r.Labels[0]
}

// State is everything a resolved round carries between player commands.
// The engine owns no identity or persistence for it.
type State struct {
	// Results are the drawn entries in draw order.
	Results []Result
	// Replaced lists the wheels re-rolled this round.
	Replaced []string
	// ReplacementUsed latches true once a replacement succeeds.
	ReplacementUsed bool
	// ReplacementAvailable is fixed at creation to !DidCheat.
	ReplacementAvailable bool
	// Notes is reserved for free-text annotations; always empty today.
	Notes []string
	// DidCheat and DidWin echo the inputs that produced the round.
	DidCheat bool
	DidWin   bool
}

// Result returns the entry for wheelName, if drawn.
func (s State) Result(wheelName string) (Result, bool) {
	for _, r := range s.Results {
		if r.Wheel == wheelName {
			return r, true
		}
	}
	return Result{}, false
}

// Has reports whether wheelName has an entry in the results.
func (s State) Has(wheelName string) bool {
	_, ok := s.Result(wheelName)
	return ok
}

// WasReplaced reports whether wheelName was re-rolled this round.
func (s State) WasReplaced(wheelName string) bool {
	for _, n := range s.Replaced {
		if n == wheelName {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Results = make([]Result, len(s.Results))
	for i, r := range s.Results {
		out.Results[i] = Result{Wheel: r.Wheel, Kind: r.Kind, Labels: append([]string(nil), r.Labels...)}
	}
	out.Replaced = append([]string{}, s.Replaced...)
	out.Notes = append([]string{}, s.Notes...)
	return out
}
