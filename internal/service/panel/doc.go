// Package panel assembles the appliance: it loads the configuration, wires
// the event sources, the displays and the audio sink to the merged queue
// and runs the arbitration loop until shutdown.
package panel
