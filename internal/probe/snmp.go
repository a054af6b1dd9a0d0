package probe

import (
	"context"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/lansweep/lansweep/internal/logging"
)

// Standard MIB-II system group OIDs.
const (
	oidSysDescr = ".1.3.6.1.2.1.1.1.0"
	oidSysName  = ".1.3.6.1.2.1.1.5.0"
)

// SNMPInfo holds the system group values read from a device.
type SNMPInfo struct {
	SysName  string
	SysDescr string
}

// SNMPClient enriches discovered devices with SNMP system information.
// Most consumer devices do not speak SNMP, so failures are silent.
type SNMPClient struct {
	community string
	timeout   time.Duration
}

// NewSNMPClient creates a v2c client with the given community string.
func NewSNMPClient(community string, timeout time.Duration) *SNMPClient {
	return &SNMPClient{
		community: community,
		timeout:   timeout,
	}
}

// Query reads sysName and sysDescr from the target. Returns nil when the
// device does not respond to SNMP.
func (c *SNMPClient) Query(ctx context.Context, target string) *SNMPInfo {
	conn := &gosnmp.GoSNMP{
		Target:    target,
		Port:      161,
		Community: c.community,
		Version:   gosnmp.Version2c,
		Timeout:   c.timeout,
		Retries:   0,
		Context:   ctx,
	}

	if err := conn.Connect(); err != nil {
		return nil
	}
	defer conn.Conn.Close()

	result, err := conn.Get([]string{oidSysName, oidSysDescr})
	if err != nil || len(result.Variables) < 2 {
		return nil
	}

	info := &SNMPInfo{
		SysName:  pduString(result.Variables[0]),
		SysDescr: pduString(result.Variables[1]),
	}
	if info.SysName == "" && info.SysDescr == "" {
		return nil
	}

	logging.Debug("SNMP system info",
		"target", target,
		"sys_name", info.SysName)
	return info
}

func pduString(pdu gosnmp.SnmpPDU) string {
	switch v := pdu.Value.(type) {
	case string:
		return strings.TrimSpace(v)
	case []byte:
		return strings.TrimSpace(string(v))
	default:
		return ""
	}
}
