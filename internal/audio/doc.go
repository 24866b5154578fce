// Package audio plays WAV alert sounds and drives the ALSA mixer.
//
// The implementation shells out to aplay and amixer, matching how the
// appliance image is provisioned. Playback is at-most-one: a new request
// kills any in-flight aplay before starting, and every finished playback is
// reported back into the merged event stream as a PlaybackFinished event so
// the arbiter can clear its playing flag.
package audio
