package sampler

import "github.com/ossrs/go-oryx-lib/errors"

var (
	// ErrInvalidIndex reports a pad index outside [0, NumPads).
	ErrInvalidIndex = errors.New("sampler: pad index out of range")
	// ErrNoBuffer reports a trigger on a pad without a loaded buffer.
	ErrNoBuffer = errors.New("sampler: no buffer loaded")
	// ErrInvalidTrim reports a trim region that plays nothing.
	ErrInvalidTrim = errors.New("sampler: invalid trim region")
	// ErrPlaybackStart reports that the source rejected both start forms.
	ErrPlaybackStart = errors.New("sampler: playback start rejected")
	// ErrInvalidValue reports a non-finite or out-of-domain setter argument.
	ErrInvalidValue = errors.New("sampler: invalid value")
)
