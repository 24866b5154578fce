package oled

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Device is the byte-level transport to the display controller.
type Device interface {
	// Command sends control bytes.
	Command(cmds ...byte) error
	// Data sends framebuffer bytes.
	Data(data []byte) error
	// Close releases the transport.
	Close() error
}

// SSD130x control bytes prefixing every I2C write.
const (
	controlCommand = 0x00
	controlData    = 0x40
)

// i2cSlaveIoctl is the Linux I2C_SLAVE ioctl number (linux/i2c-dev.h); it
// binds an open bus fd to a slave address and is not exported by x/sys/unix.
const i2cSlaveIoctl = 0x0703

// i2cDevice talks to the controller through a Linux I2C character device.
type i2cDevice struct {
	// file is the open bus device.
	file *os.File
}

// openI2C opens the bus and binds it to the display's address.
func openI2C(device string, address uint16) (*i2cDevice, error) {
	file, err := os.OpenFile(device, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}

	if err := unix.IoctlSetInt(int(file.Fd()), i2cSlaveIoctl, int(address)); err != nil {
		file.Close()

		return nil, fmt.Errorf("bind i2c address %#x: %w", address, err)
	}

	return &i2cDevice{file: file}, nil
}

// Command sends the bytes with the command control prefix.
func (d *i2cDevice) Command(cmds ...byte) error {
	if _, err := d.file.Write(append([]byte{controlCommand}, cmds...)); err != nil {
		return fmt.Errorf("write i2c command: %w", err)
	}

	return nil
}

// Data sends the bytes with the data control prefix.
func (d *i2cDevice) Data(data []byte) error {
	if _, err := d.file.Write(append([]byte{controlData}, data...)); err != nil {
		return fmt.Errorf("write i2c data: %w", err)
	}

	return nil
}

// Close releases the bus device.
func (d *i2cDevice) Close() error {
	return d.file.Close()
}
