package core

import "errors"

// Index errors. They are wrapped with the offending name or location, so
// match them with errors.Is.
var (
	// ErrOutOfBounds indicates a location outside the indexed region.
	ErrOutOfBounds = errors.New("location out of bounds")
	// ErrDuplicateCoordinate indicates another point already sits at the location.
	ErrDuplicateCoordinate = errors.New("duplicate coordinate")
	// ErrDuplicateName indicates the same site is already indexed.
	ErrDuplicateName = errors.New("duplicate name")
	// ErrStartDoesNotExist indicates the segment's start is not an indexed point.
	ErrStartDoesNotExist = errors.New("start point does not exist")
	// ErrEndDoesNotExist indicates the segment's end is not an indexed point.
	ErrEndDoesNotExist = errors.New("end point does not exist")
	// ErrStartEqualsEnd indicates a degenerate segment.
	ErrStartEqualsEnd = errors.New("start equals end")
	// ErrRoadAlreadyExists indicates the segment is already indexed.
	ErrRoadAlreadyExists = errors.New("road already exists")
	// ErrRoadIntersecting indicates the segment crosses an indexed one
	// away from a shared endpoint.
	ErrRoadIntersecting = errors.New("road intersects another road")
	// ErrPMRuleViolation indicates a leaf breaks the PM rule at minimum size.
	ErrPMRuleViolation = errors.New("PM rule violation")
	// ErrInvalidPMOrder indicates an unsupported PM order.
	ErrInvalidPMOrder = errors.New("invalid PM order")
	// ErrInvalidConfig indicates unusable spatial bounds.
	ErrInvalidConfig = errors.New("invalid index config")
)
