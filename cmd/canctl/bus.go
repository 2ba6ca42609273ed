package main

import (
	"github.com/spf13/cobra"

	"github.com/danmuck/canctl/internal/canbus"
	"github.com/danmuck/canctl/internal/slcan"
)

// busOptions selects the bus a command talks to. A serial port takes
// precedence over a SocketCAN interface so the same flags work for both
// adapter families.
type busOptions struct {
	iface      string
	serialPort string
	baudRate   int
	bitrate    int
	enableFD   bool
}

func addBusFlags(cmd *cobra.Command) *busOptions {
	opts := &busOptions{}
	cmd.Flags().StringVarP(&opts.iface, "interface", "i", "can0", "SocketCAN interface name")
	cmd.Flags().StringVar(&opts.serialPort, "serial", "", "slcan serial port, overrides --interface")
	cmd.Flags().IntVar(&opts.baudRate, "baud", 115200, "serial port baud rate")
	cmd.Flags().IntVar(&opts.bitrate, "bitrate", 0, "slcan bus bitrate to program, 0 keeps the adapter setting")
	cmd.Flags().BoolVar(&opts.enableFD, "fd", false, "negotiate CAN FD frames on the SocketCAN interface")
	return opts
}

func (o *busOptions) dial() (canbus.Bus, error) {
	if o.serialPort != "" {
		return slcan.DialSerial(slcan.SerialConfig{
			Port:     o.serialPort,
			BaudRate: o.baudRate,
			Bitrate:  o.bitrate,
		})
	}
	return canbus.DialSocketCAN(o.iface, o.enableFD)
}

func (o *busOptions) name() string {
	if o.serialPort != "" {
		return o.serialPort
	}
	return o.iface
}
