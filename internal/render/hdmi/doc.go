// Package hdmi drives the panel's HDMI output. Doorbell and motion frames
// power the display on and hand the camera stream to an external video
// player; everything else powers the display back off. Text-only layers
// have no HDMI representation and are discarded.
package hdmi
