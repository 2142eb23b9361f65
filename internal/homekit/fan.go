// Package homekit exposes the fan to Apple HomeKit. It is a thin shell
// over the fan client: characteristic reads and writes map one-to-one
// onto the four client operations.
package homekit

import (
	"github.com/brutella/hap/characteristic"
	"github.com/brutella/hap/service"
)

// fanV2 is a Fan v2 service carrying the two characteristics the
// device can honor: power and rotation speed. The speed step is 33 so
// the Home app slider snaps to the device's four levels.
type fanV2 struct {
	*service.S

	Active        *characteristic.Active
	RotationSpeed *characteristic.RotationSpeed
}

func newFanV2() *fanV2 {
	s := fanV2{}
	s.S = service.New(service.TypeFanV2)

	s.Active = characteristic.NewActive()
	s.AddC(s.Active.C)

	s.RotationSpeed = characteristic.NewRotationSpeed()
	s.RotationSpeed.SetStepValue(33)
	s.AddC(s.RotationSpeed.C)

	return &s
}

// HAP status code for "service communication failure", returned to the
// Home app when the device cannot be reached and no cache exists.
const statusCommunicationFailure = -70402
