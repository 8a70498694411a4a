package cpu

import "testing"

func TestVendor(t *testing.T) {
	defer func() {
		cpuidFn = ID
	}()

	specs := []struct {
		ebx, ecx, edx uint32
		exp           string
	}{
		{0x756e6547, 0x6c65746e, 0x49656e69, "GenuineIntel"},
		{0x68747541, 0x444d4163, 0x69746e65, "AuthenticAMD"},
	}

	for specIndex, spec := range specs {
		cpuidFn = func(_ uint32) (uint32, uint32, uint32, uint32) {
			return 0, spec.ebx, spec.ecx, spec.edx
		}

		if got := string(Vendor()); got != spec.exp {
			t.Errorf("[spec %d] expected vendor %q; got %q", specIndex, spec.exp, got)
		}
	}
}
