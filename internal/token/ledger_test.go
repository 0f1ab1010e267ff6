package token

import "testing"

func TestSplitFee(t *testing.T) {
	cases := []struct {
		amount, percent, fee, net uint64
	}{
		{5_000_000, 10, 500_000, 4_500_000},
		{100, 0, 0, 100},
		{99, 10, 9, 90},
		{1, 10, 0, 1},
		{100, 100, 100, 0},
	}
	for _, c := range cases {
		fee, net := SplitFee(c.amount, c.percent)
		if fee != c.fee || net != c.net {
			t.Errorf("SplitFee(%d, %d): got (%d, %d), want (%d, %d)",
				c.amount, c.percent, fee, net, c.fee, c.net)
		}
		if fee+net != c.amount {
			t.Errorf("SplitFee(%d, %d): fee+net=%d, units lost", c.amount, c.percent, fee+net)
		}
	}
}
