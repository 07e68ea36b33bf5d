package fingerprint

import "strings"

// scanner is a minimal cursor over one debug-printed payload. Every method
// either consumes exactly what it names or leaves a failure state; there is
// no backtracking inside a shape, only between shapes.
type scanner struct {
	s   string
	pos int
}

func newScanner(s string) *scanner {
	return &scanner{s: s}
}

func (sc *scanner) rest() string {
	return sc.s[sc.pos:]
}

// space skips spaces and tabs.
func (sc *scanner) space() {
	for sc.pos < len(sc.s) && (sc.s[sc.pos] == ' ' || sc.s[sc.pos] == '\t') {
		sc.pos++
	}
}

// literal consumes the exact text, tolerating leading whitespace.
func (sc *scanner) literal(lit string) bool {
	sc.space()
	if strings.HasPrefix(sc.rest(), lit) {
		sc.pos += len(lit)
		return true
	}
	return false
}

func (sc *scanner) openBrace() bool  { return sc.literal("{") }
func (sc *scanner) closeBrace() bool { return sc.literal("}") }
func (sc *scanner) comma() bool      { return sc.literal(",") }

// quoted consumes `"..."`. The observed format never escapes quotes, so
// the value runs to the next double quote regardless of its content.
func (sc *scanner) quoted() (string, bool) {
	sc.space()
	if sc.pos >= len(sc.s) || sc.s[sc.pos] != '"' {
		return "", false
	}
	end := strings.IndexByte(sc.s[sc.pos+1:], '"')
	if end < 0 {
		return "", false
	}
	v := sc.s[sc.pos+1 : sc.pos+1+end]
	sc.pos += end + 2
	return v, true
}

// digits consumes an unsigned decimal run. The value is kept as text:
// cargo fingerprints are u64 hashes that a caller must never reinterpret
// numerically.
func (sc *scanner) digits() (string, bool) {
	sc.space()
	start := sc.pos
	for sc.pos < len(sc.s) && sc.s[sc.pos] >= '0' && sc.s[sc.pos] <= '9' {
		sc.pos++
	}
	if sc.pos == start {
		return "", false
	}
	return sc.s[start:sc.pos], true
}

// key consumes `name:`.
func (sc *scanner) key(name string) bool {
	return sc.literal(name) && sc.literal(":")
}

// stringField consumes `name: "value"`.
func (sc *scanner) stringField(name string) (string, bool) {
	if !sc.key(name) {
		return "", false
	}
	return sc.quoted()
}

// numberField consumes `name: 123`.
func (sc *scanner) numberField(name string) (string, bool) {
	if !sc.key(name) {
		return "", false
	}
	return sc.digits()
}

// optionField consumes `name: None` or `name: Some("value")`. A nil result
// with ok=true means None.
func (sc *scanner) optionField(name string) (*string, bool) {
	if !sc.key(name) {
		return nil, false
	}
	sc.space()
	if sc.literal("None") {
		return nil, true
	}
	if !sc.literal("Some") || !sc.literal("(") {
		return nil, false
	}
	v, ok := sc.quoted()
	if !ok || !sc.literal(")") {
		return nil, false
	}
	return &v, true
}

// stringListField consumes `name: ["a", "b"]`. An empty list is valid.
func (sc *scanner) stringListField(name string) ([]string, bool) {
	if !sc.key(name) || !sc.literal("[") {
		return nil, false
	}
	var items []string
	for {
		sc.space()
		if sc.literal("]") {
			return items, true
		}
		if len(items) > 0 && !sc.comma() {
			return nil, false
		}
		v, ok := sc.quoted()
		if !ok {
			return nil, false
		}
		items = append(items, v)
	}
}

// fileTimeField consumes `name: FileTime { seconds: 1, nanos: 2 }`,
// discarding the values.
func (sc *scanner) fileTimeField(name string) bool {
	if !sc.key(name) || !sc.literal("FileTime") || !sc.openBrace() {
		return false
	}
	if _, ok := sc.numberField("seconds"); !ok || !sc.comma() {
		return false
	}
	if _, ok := sc.numberField("nanos"); !ok {
		return false
	}
	return sc.closeBrace()
}
