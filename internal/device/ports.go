package device

import (
	"strings"

	"go.bug.st/serial/enumerator"
)

// PortInfo holds details about an attached serial port.
type PortInfo struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
	LikelyDevice bool // looks like a USB-UART bridge used by dev boards
}

// Vendor IDs of the USB-UART bridges common on ESP32-class boards:
// Silicon Labs CP210x, WCH CH340, FTDI.
var bridgeVIDs = map[string]bool{
	"10C4": true,
	"1A86": true,
	"0403": true,
}

// ListPorts returns available serial ports, flagging the ones that look
// like an attached dev board.
func ListPorts() ([]PortInfo, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}

	var result []PortInfo
	for _, p := range ports {
		result = append(result, PortInfo{
			Name:         p.Name,
			IsUSB:        p.IsUSB,
			VID:          p.VID,
			PID:          p.PID,
			SerialNumber: p.SerialNumber,
			LikelyDevice: p.IsUSB && bridgeVIDs[strings.ToUpper(p.VID)],
		})
	}
	return result, nil
}

// DetectPort picks the most plausible device port: the first USB-UART
// bridge, falling back to the first port of any kind. Empty when none.
func DetectPort(ports []PortInfo) string {
	for _, p := range ports {
		if p.LikelyDevice {
			return p.Name
		}
	}
	if len(ports) > 0 {
		return ports[0].Name
	}
	return ""
}
