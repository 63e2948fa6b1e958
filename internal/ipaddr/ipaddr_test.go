package ipaddr

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	tests := []struct {
		in      string
		wantLen int
	}{
		{"203.0.113.5", 4},
		{"127.0.0.1", 4},
		{"0.0.0.0", 4},
		{"2001:db8::1", 16},
		{"::1", 16},
		{"fe80::1234:5678:9abc:def0", 16},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			addr := netip.MustParseAddr(tt.in)
			b := Encode(addr)
			require.Len(t, b, tt.wantLen)

			got, ok := Decode(b)
			require.True(t, ok)
			assert.Equal(t, addr, got)
		})
	}
}

func TestEncode_UnmapsIPv4MappedIPv6(t *testing.T) {
	b := Encode(netip.MustParseAddr("::ffff:203.0.113.5"))
	assert.Equal(t, []byte{203, 0, 113, 5}, b)
}

func TestDecode_BadLength(t *testing.T) {
	for _, n := range []int{0, 1, 3, 5, 15, 17} {
		_, ok := Decode(make([]byte, n))
		assert.Falsef(t, ok, "Decode of %d bytes should report absent", n)
	}
}

func TestFromRemoteAddr(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"203.0.113.5:51234", "203.0.113.5", false},
		{"[2001:db8::1]:443", "2001:db8::1", false},
		{"[fe80::1%eth0]:80", "fe80::1", false},
		{"198.51.100.7", "198.51.100.7", false},
		{"2001:db8::2", "2001:db8::2", false},
		{"", "", true},
		{"not-an-ip:80", "", true},
		{"pipe", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := FromRemoteAddr(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNoAddress)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, netip.MustParseAddr(tt.want), got)
		})
	}
}
