// Package oled renders display frames on the panel's SSD1305 OLED over
// I2C. Frames are laid out as four 21-column text lines and blitted with a
// fixed 5x7 font; a background ticker keeps time-dependent content such as
// the idle clock moving between frames.
package oled
