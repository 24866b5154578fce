// Package encoder polls the panel's two rotary encoders over GPIO and
// publishes debounced rotation steps and switch presses.
package encoder
