package halfedge

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange reports a stored vertex, polygon, twin or edge index
// that does not fit the mesh arrays.
var ErrIndexOutOfRange = errors.New("halfedge: stored index out of range")

// ValidationSeverity indicates whether a finding makes the mesh unusable or
// is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // mesh is inconsistent
	SeverityWarning                           // mesh is usable but open or odd
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Polygon  int                // polygon index, -1 if not polygon-specific
	Edge     int                // half-edge index, -1 if not edge-specific
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	switch {
	case e.Edge >= 0:
		return fmt.Sprintf("[%s] edge %d: %s", e.Severity, e.Edge, e.Message)
	case e.Polygon >= 0:
		return fmt.Sprintf("[%s] polygon %d: %s", e.Severity, e.Polygon, e.Message)
	default:
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
}

// ValidationResult splits findings into blocking errors and warnings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether no blocking errors were found.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate checks the structural invariants of a control mesh. It never
// mutates the mesh.
func Validate(m *ControlMesh) ValidationResult {
	var findings []ValidationError
	findings = append(findings, validateIndices(m)...)
	if len(findings) == 0 {
		findings = append(findings, validateLoops(m)...)
		findings = append(findings, validateTwins(m)...)
	}

	var result ValidationResult
	for _, f := range findings {
		if f.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, f)
		} else {
			result.Errors = append(result.Errors, f)
		}
	}
	return result
}

func edgeError(e int, format string, args ...any) ValidationError {
	return ValidationError{Polygon: -1, Edge: e, Message: fmt.Sprintf(format, args...), Severity: SeverityError}
}

func polygonError(p int, format string, args ...any) ValidationError {
	return ValidationError{Polygon: p, Edge: -1, Message: fmt.Sprintf(format, args...), Severity: SeverityError}
}

// CheckIndices returns the first out-of-range stored index as an error
// wrapping ErrIndexOutOfRange. Loop walks such as PolygonPositions are safe
// once it returns nil.
func CheckIndices(m *ControlMesh) error {
	errs := validateIndices(m)
	if len(errs) == 0 {
		return nil
	}
	f := errs[0]
	if f.Edge >= 0 {
		return fmt.Errorf("half-edge %d: %s: %w", f.Edge, f.Message, ErrIndexOutOfRange)
	}
	return fmt.Errorf("polygon %d: %s: %w", f.Polygon, f.Message, ErrIndexOutOfRange)
}

// validateIndices checks every stored index is in range. Later checks
// assume it passed.
func validateIndices(m *ControlMesh) []ValidationError {
	var errs []ValidationError
	for i, e := range m.Edges {
		if e.VertexIndex < 0 || e.VertexIndex >= len(m.Vertices) {
			errs = append(errs, edgeError(i, "vertex index %d out of range [0,%d)", e.VertexIndex, len(m.Vertices)))
		}
		if e.PolygonIndex < 0 || e.PolygonIndex >= len(m.Polygons) {
			errs = append(errs, edgeError(i, "polygon index %d out of range [0,%d)", e.PolygonIndex, len(m.Polygons)))
		}
		if e.TwinIndex != NoTwin && (e.TwinIndex < 0 || e.TwinIndex >= len(m.Edges)) {
			errs = append(errs, edgeError(i, "twin index %d out of range [0,%d)", e.TwinIndex, len(m.Edges)))
		}
	}
	for p, poly := range m.Polygons {
		for _, e := range poly.EdgeIndices {
			if e < 0 || e >= len(m.Edges) {
				errs = append(errs, polygonError(p, "edge index %d out of range [0,%d)", e, len(m.Edges)))
			}
		}
	}
	return errs
}

// validateLoops checks loop length and ownership. Every half-edge must be
// listed by exactly the polygon it names.
func validateLoops(m *ControlMesh) []ValidationError {
	var errs []ValidationError
	owner := make([]int, len(m.Edges))
	for i := range owner {
		owner[i] = -1
	}
	for p, poly := range m.Polygons {
		if len(poly.EdgeIndices) < 3 {
			errs = append(errs, polygonError(p, "loop has %d half-edges, need at least 3", len(poly.EdgeIndices)))
		}
		for _, e := range poly.EdgeIndices {
			if owner[e] != -1 {
				errs = append(errs, edgeError(e, "listed by polygons %d and %d", owner[e], p))
				continue
			}
			owner[e] = p
			if m.Edges[e].PolygonIndex != p {
				errs = append(errs, edgeError(e, "listed by polygon %d but owned by %d", p, m.Edges[e].PolygonIndex))
			}
		}
	}
	for e, p := range owner {
		if p == -1 {
			errs = append(errs, edgeError(e, "not part of any polygon loop"))
		}
	}
	return errs
}

// validateTwins checks twin symmetry and that twins run between the same
// two vertices in opposite directions. Unpaired edges are warnings.
func validateTwins(m *ControlMesh) []ValidationError {
	var errs []ValidationError
	for i, e := range m.Edges {
		if !e.HasTwin() {
			errs = append(errs, ValidationError{
				Polygon:  -1,
				Edge:     i,
				Message:  "boundary edge has no twin",
				Severity: SeverityWarning,
			})
			continue
		}
		t := m.Edges[e.TwinIndex]
		if t.TwinIndex != i {
			errs = append(errs, edgeError(i, "twin %d points back at %d", e.TwinIndex, t.TwinIndex))
			continue
		}
		if e.Primary == t.Primary {
			errs = append(errs, edgeError(i, "twin pair with %d has primary=%t on both sides", e.TwinIndex, e.Primary))
		}
		tail, twinTail := m.Tail(i), m.Tail(e.TwinIndex)
		if tail != t.VertexIndex || twinTail != e.VertexIndex {
			errs = append(errs, edgeError(i, "twin %d does not run between the same vertices (%d->%d vs %d->%d)",
				e.TwinIndex, tail, e.VertexIndex, twinTail, t.VertexIndex))
		}
	}
	return errs
}
