package audio

import "errors"

var (
	ErrNoTrackLoaded = errors.New("no track loaded")
)
