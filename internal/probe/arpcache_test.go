package probe

import (
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleARPTable = `IP address       HW type     Flags       HW address            Mask     Device
192.168.1.1      0x1         0x2         aa:bb:cc:dd:ee:ff     *        eth0
192.168.1.42     0x1         0x2         b8:27:eb:12:34:56     *        eth0
192.168.1.99     0x1         0x0         00:00:00:00:00:00     *        eth0
192.168.1.100    0x1         0x2         00:00:00:00:00:00     *        eth0
`

func TestParseProcARPFindsEntry(t *testing.T) {
	mac := parseProcARP(strings.NewReader(sampleARPTable), net.IPv4(192, 168, 1, 1))
	require.NotNil(t, mac)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", mac.String())

	mac = parseProcARP(strings.NewReader(sampleARPTable), net.IPv4(192, 168, 1, 42))
	require.NotNil(t, mac)
	assert.Equal(t, "b8:27:eb:12:34:56", mac.String())
}

func TestParseProcARPMissingEntry(t *testing.T) {
	mac := parseProcARP(strings.NewReader(sampleARPTable), net.IPv4(192, 168, 1, 7))
	assert.Nil(t, mac)
}

func TestParseProcARPSkipsIncompleteEntries(t *testing.T) {
	// Flags 0x0 means the kernel never got a reply.
	mac := parseProcARP(strings.NewReader(sampleARPTable), net.IPv4(192, 168, 1, 99))
	assert.Nil(t, mac)
}

func TestParseProcARPSkipsZeroMAC(t *testing.T) {
	mac := parseProcARP(strings.NewReader(sampleARPTable), net.IPv4(192, 168, 1, 100))
	assert.Nil(t, mac)
}

func TestParseProcARPEmptyInput(t *testing.T) {
	assert.Nil(t, parseProcARP(strings.NewReader(""), net.IPv4(192, 168, 1, 1)))
}

func TestIsZeroMAC(t *testing.T) {
	zero, _ := net.ParseMAC("00:00:00:00:00:00")
	hw, _ := net.ParseMAC("aa:bb:cc:dd:ee:ff")

	assert.True(t, isZeroMAC(zero))
	assert.False(t, isZeroMAC(hw))
}
