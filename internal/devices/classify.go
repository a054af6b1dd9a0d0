package devices

import (
	"strings"
)

// ouiVendors maps the first three MAC octets to a vendor name. The table
// covers the vendors most commonly seen on home and office LANs.
var ouiVendors = map[string]string{
	"005056": "VMware",
	"000C29": "VMware",
	"080027": "VirtualBox",
	"001B21": "Intel",
	"00E04C": "Realtek",
	"B827EB": "Raspberry Pi",
	"DCA632": "Raspberry Pi",
	"00163E": "Xen Virtual",
	"525400": "QEMU/KVM",
	"FCFBFB": "Ubiquiti",
	"001A11": "Apple",
	"F0D1A9": "Samsung",
}

// hostnameTypes orders hostname keyword groups by classification priority.
var hostnameTypes = []struct {
	keywords []string
	kind     string
}{
	{[]string{"router", "gateway", "fritzbox", "dlink", "asus", "tp-link"}, "Router"},
	{[]string{"printer", "canon", "hp", "epson", "brother"}, "Printer"},
	{[]string{"phone", "android", "iphone", "samsung", "huawei", "xiaomi"}, "Mobile Device"},
	{[]string{"laptop", "notebook", "pc", "desktop", "macbook", "imac"}, "Computer"},
	{[]string{"tv", "smart", "lg", "samsung-tv", "chromecast", "firetv"}, "Smart TV"},
	{[]string{"raspberry", "pi"}, "Raspberry Pi"},
	{[]string{"camera", "webcam", "cctv"}, "Camera"},
	{[]string{"ap", "access point", "wifi"}, "Wireless AP"},
}

const unknownDevice = "Unknown Device"

// VendorFromMAC returns the vendor for a MAC address string, or "" when
// the OUI prefix is not in the table.
func VendorFromMAC(mac string) string {
	prefix := ouiPrefix(mac)
	if prefix == "" {
		return ""
	}
	return ouiVendors[prefix]
}

// Classify derives a device type from the hostname and MAC address.
// Hostname keywords win over vendor prefixes; virtualization vendors
// collapse to "Virtual Machine".
func Classify(hostname, mac string) string {
	lower := strings.ToLower(hostname)
	for _, group := range hostnameTypes {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.kind
			}
		}
	}

	if vendor := VendorFromMAC(mac); vendor != "" {
		lv := strings.ToLower(vendor)
		if strings.Contains(lv, "vmware") || strings.Contains(lv, "virtual") ||
			strings.Contains(lv, "qemu") || strings.Contains(lv, "xen") {
			return "Virtual Machine"
		}
		return vendor
	}

	return unknownDevice
}

func ouiPrefix(mac string) string {
	cleaned := strings.NewReplacer(":", "", "-", "", ".", "").Replace(mac)
	if len(cleaned) < 6 {
		return ""
	}
	return strings.ToUpper(cleaned[:6])
}
