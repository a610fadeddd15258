// Package serialport configures the raw termios settings a serial
// link needs before it can carry service frames (spec.md §6 "Transport
// binding"). Modeled on pkg/can/socketcanv2's direct unix.* syscalls
// for setting up a transport rather than reaching for a wrapping
// library: the device is a plain *os.File, and baud/line-discipline
// configuration is just an ioctl away.
package serialport

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Baud is one of the rates spec.md's baud table names.
type Baud int

// BaudRates lists every rate accepted by cmd/remoteservice's -s flag,
// in the order spec.md documents them.
var BaudRates = []Baud{75, 150, 300, 600, 1200, 2400, 4800, 9600, 19200, 38400}

// DefaultBaud is used when -s is not given.
const DefaultBaud Baud = 38400

var termiosSpeed = map[Baud]uint32{
	75:    unix.B75,
	150:   unix.B150,
	300:   unix.B300,
	600:   unix.B600,
	1200:  unix.B1200,
	2400:  unix.B2400,
	4800:  unix.B4800,
	9600:  unix.B9600,
	19200: unix.B19200,
	38400: unix.B38400,
}

// Valid reports whether b is one of spec.md's documented rates.
func (b Baud) Valid() bool {
	_, ok := termiosSpeed[b]
	return ok
}

// Open opens device and configures it as an 8N1 raw serial line at
// baud, with no flow control, mirroring the driver's own port setup.
func Open(device string, baud Baud) (*os.File, error) {
	speed, ok := termiosSpeed[baud]
	if !ok {
		return nil, fmt.Errorf("serialport: unsupported baud rate %d", baud)
	}
	f, err := os.OpenFile(device, os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, err
	}
	if err := configure(int(f.Fd()), speed); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func configure(fd int, speed uint32) error {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("serialport: get termios: %w", err)
	}

	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB
	t.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0

	t.Ispeed = uint32(speed)
	t.Ospeed = uint32(speed)

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		return fmt.Errorf("serialport: set termios: %w", err)
	}
	return nil
}
