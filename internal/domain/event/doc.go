// Package event contains the core event and display types of the appliance.
//
// Every input the panel reacts to, a doorbell ring from MQTT, detected
// motion, a text message, AirPlay metadata, an encoder turn, an expired
// timer or a finished playback, arrives as one Event value on the merged
// stream. The package also defines the Layer ranking that resolves which
// content owns the displays, plus the DisplayFrame and PlayRequest
// contracts handed to the output sinks.
package event
