package eve

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// SPIConfig names the host resources an EVE module is wired to.
type SPIConfig struct {
	// Port is the spireg name, "" for the first available port
	// (/dev/spidev0.0 on a Raspberry Pi).
	Port string
	// MaxHz caps the SPI clock. EVE accepts up to 30MHz once running, but
	// many wiring setups need less.
	MaxHz int64
	// PDPin is the gpioreg name of the power-down line, "" if not wired.
	PDPin string
}

// OpenSPI initializes periph.io, opens the SPI port in mode 0 and resolves
// the PD pin. The returned closer releases the port.
func OpenSPI(cfg SPIConfig) (*Dev, func() error, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("eve: periph host init failed: %w", err)
	}

	port, err := spireg.Open(cfg.Port)
	if err != nil {
		return nil, nil, fmt.Errorf("eve: failed to open SPI port %q: %w", cfg.Port, err)
	}

	hz := cfg.MaxHz
	if hz <= 0 {
		hz = 8_000_000
	}
	conn, err := port.Connect(physic.Frequency(hz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, nil, fmt.Errorf("eve: failed to connect SPI: %w", err)
	}

	var pd gpio.PinOut
	if cfg.PDPin != "" {
		p := gpioreg.ByName(cfg.PDPin)
		if p == nil {
			_ = port.Close()
			return nil, nil, fmt.Errorf("eve: gpio %s not found", cfg.PDPin)
		}
		if err := p.Out(gpio.High); err != nil {
			_ = port.Close()
			return nil, nil, fmt.Errorf("eve: gpio %s Out failed: %w", cfg.PDPin, err)
		}
		pd = p
	}

	return NewDev(conn, pd), port.Close, nil
}
