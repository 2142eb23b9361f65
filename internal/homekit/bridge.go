package homekit

import (
	"context"
	"log"
	"net/http"

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"

	"github.com/sweeney/udpfan/internal/protocol"
)

// Fan is the fan client surface the accessory drives. *fan.Client
// satisfies it; tests substitute a fake.
type Fan interface {
	GetSpeed() (float64, error)
	SetSpeed(percent float64) (float64, error)
	GetActive() (bool, error)
	SetActive(on bool) error
}

// Bridge publishes a single fan accessory over HomeKit.
type Bridge struct {
	server *hap.Server
	acc    *accessory.A
	svc    *fanV2
}

// New builds the accessory and its server. stateDir holds pairing
// state across restarts; pin is the setup code shown in the Home app.
func New(f Fan, name, stateDir, pin string) (*Bridge, error) {
	a := accessory.New(accessory.Info{
		Name:         name,
		Manufacturer: "udpfan",
		Model:        "esp8266-fan",
	}, accessory.TypeFan)

	svc := newFanV2()
	a.AddS(svc.S)

	svc.Active.OnValueRemoteUpdate(func(v int) {
		if err := f.SetActive(v == characteristic.ActiveActive); err != nil {
			log.Printf("homekit: set active %d: %v", v, err)
		}
	})
	svc.RotationSpeed.OnValueRemoteUpdate(func(pct float64) {
		if _, err := f.SetSpeed(pct); err != nil {
			log.Printf("homekit: set speed %.0f%%: %v", pct, err)
		}
	})

	svc.Active.C.ValueRequestFunc = func(*http.Request) (interface{}, int) {
		on, err := f.GetActive()
		if err != nil {
			log.Printf("homekit: get active: %v", err)
			return nil, statusCommunicationFailure
		}
		if on {
			return characteristic.ActiveActive, 0
		}
		return characteristic.ActiveInactive, 0
	}
	svc.RotationSpeed.C.ValueRequestFunc = func(*http.Request) (interface{}, int) {
		pct, err := f.GetSpeed()
		if err != nil {
			log.Printf("homekit: get speed: %v", err)
			return nil, statusCommunicationFailure
		}
		return pct, 0
	}

	server, err := hap.NewServer(hap.NewFsStore(stateDir), a)
	if err != nil {
		return nil, err
	}
	server.Pin = pin

	return &Bridge{server: server, acc: a, svc: svc}, nil
}

// Update pushes a freshly polled level into the characteristics so
// paired controllers get change notifications without polling us.
func (b *Bridge) Update(level int) {
	if protocol.Active(level) {
		b.svc.Active.SetValue(characteristic.ActiveActive)
	} else {
		b.svc.Active.SetValue(characteristic.ActiveInactive)
	}
	b.svc.RotationSpeed.SetValue(protocol.LevelToPercent(level))
}

// ListenAndServe runs the HomeKit server until ctx is canceled.
func (b *Bridge) ListenAndServe(ctx context.Context) error {
	return b.server.ListenAndServe(ctx)
}
