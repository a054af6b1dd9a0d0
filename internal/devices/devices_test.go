package devices

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanResultAddDevice(t *testing.T) {
	t.Run("appends in arrival order", func(t *testing.T) {
		result := NewScanResult("192.168.1.0/24", "icmp")

		ips := []string{"192.168.1.42", "192.168.1.1", "192.168.1.10"}
		for _, ip := range ips {
			ok := result.AddDevice(Device{IP: net.ParseIP(ip), SeenAt: time.Now()})
			assert.True(t, ok)
		}

		got := result.Devices()
		require.Len(t, got, 3)
		for i, ip := range ips {
			assert.Equal(t, ip, got[i].IP.String(), "arrival order must be preserved")
		}
	})

	t.Run("rejects duplicate IPs", func(t *testing.T) {
		result := NewScanResult("192.168.1.0/24", "icmp")

		assert.True(t, result.AddDevice(Device{IP: net.ParseIP("192.168.1.5")}))
		assert.False(t, result.AddDevice(Device{IP: net.ParseIP("192.168.1.5")}))
		assert.Equal(t, 1, result.Len())
	})

	t.Run("rejects nil IP", func(t *testing.T) {
		result := NewScanResult("192.168.1.0/24", "icmp")
		assert.False(t, result.AddDevice(Device{}))
		assert.Equal(t, 0, result.Len())
	})

	t.Run("concurrent appends are safe and unique", func(t *testing.T) {
		result := NewScanResult("10.0.0.0/24", "icmp")

		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 1; i <= 100; i++ {
					ip := net.IPv4(10, 0, 0, byte(i))
					result.AddDevice(Device{IP: ip})
				}
			}()
		}
		wg.Wait()

		// Every goroutine tried the same 100 IPs; uniqueness must hold.
		assert.Equal(t, 100, result.Len())
	})
}

func TestScanResultMetadata(t *testing.T) {
	result := NewScanResult("192.168.1.0/24", "icmp")

	assert.NotEqual(t, result.ID.String(), "00000000-0000-0000-0000-000000000000")
	assert.Equal(t, "192.168.1.0/24", result.Network)
	assert.False(t, result.StartedAt.IsZero())
	assert.True(t, result.FinishedAt.IsZero())

	result.Finalize()
	assert.False(t, result.FinishedAt.IsZero())
	assert.GreaterOrEqual(t, result.Duration(), time.Duration(0))
}

func TestDeviceStrings(t *testing.T) {
	mac, err := net.ParseMAC("b8:27:eb:01:02:03")
	require.NoError(t, err)

	d := Device{
		IP:       net.ParseIP("192.168.1.9"),
		Hostname: "pihole.lan",
		MAC:      mac,
	}

	assert.Equal(t, "B8:27:EB:01:02:03", d.MACString())
	assert.Equal(t, "192.168.1.9 (pihole.lan)", d.String())

	anon := Device{IP: net.ParseIP("192.168.1.9")}
	assert.Equal(t, "", anon.MACString())
	assert.Equal(t, "192.168.1.9", anon.String())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		hostname string
		mac      string
		want     string
	}{
		{"router by hostname", "fritzbox.lan", "", "Router"},
		{"printer by hostname", "HP-LaserJet.local", "", "Printer"},
		{"phone by hostname", "Android-f3a9", "", "Mobile Device"},
		{"computer by hostname", "office-desktop", "", "Computer"},
		{"raspberry by hostname", "raspberrypi", "", "Raspberry Pi"},
		{"raspberry by oui", "", "B8:27:EB:AA:BB:CC", "Raspberry Pi"},
		{"vmware collapses to vm", "", "00:0C:29:11:22:33", "Virtual Machine"},
		{"qemu collapses to vm", "", "52:54:00:11:22:33", "Virtual Machine"},
		{"vendor fallback", "", "FC:FB:FB:00:00:01", "Ubiquiti"},
		{"hostname wins over oui", "printer-hp", "B8:27:EB:AA:BB:CC", "Printer"},
		{"unknown", "host-93", "AA:BB:CC:DD:EE:FF", "Unknown Device"},
		{"empty inputs", "", "", "Unknown Device"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.hostname, tt.mac))
		})
	}
}

func TestVendorFromMAC(t *testing.T) {
	assert.Equal(t, "VMware", VendorFromMAC("00:50:56:aa:bb:cc"))
	assert.Equal(t, "VMware", VendorFromMAC("00-50-56-aa-bb-cc"))
	assert.Equal(t, "", VendorFromMAC("ff:ff:ff:00:00:00"))
	assert.Equal(t, "", VendorFromMAC("short"))
	assert.Equal(t, "", VendorFromMAC(""))
}
