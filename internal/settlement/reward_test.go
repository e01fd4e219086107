package settlement

import "testing"

func TestCalculateReward(t *testing.T) {
	tests := []struct {
		name            string
		feePerHour      int32
		rate            string
		wantPlatformFee int32
		wantReward      int32
	}{
		{name: "端数切り捨て", feePerHour: 5003, rate: "30.0", wantPlatformFee: 1500, wantReward: 3503},
		{name: "端数切り捨て（別の値）", feePerHour: 4008, rate: "30.0", wantPlatformFee: 1202, wantReward: 2806},
		{name: "DB表記の手数料率", feePerHour: 4008, rate: "30.00", wantPlatformFee: 1202, wantReward: 2806},
		{name: "小数の手数料率", feePerHour: 10000, rate: "12.5", wantPlatformFee: 1250, wantReward: 8750},
		{name: "手数料率0", feePerHour: 3000, rate: "0", wantPlatformFee: 0, wantReward: 3000},
		{name: "手数料率100", feePerHour: 3000, rate: "100", wantPlatformFee: 3000, wantReward: 0},
		{name: "相談料0", feePerHour: 0, rate: "30.0", wantPlatformFee: 0, wantReward: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := ParsePlatformFeeRate(tt.rate)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := CalculateReward(tt.feePerHour, rate)
			if got.PlatformFeeInYen != tt.wantPlatformFee {
				t.Errorf("PlatformFeeInYen = %d, want %d", got.PlatformFeeInYen, tt.wantPlatformFee)
			}
			if got.RewardInYen != tt.wantReward {
				t.Errorf("RewardInYen = %d, want %d", got.RewardInYen, tt.wantReward)
			}
			if got.PlatformFeeInYen+got.RewardInYen != tt.feePerHour {
				t.Errorf("platform fee + reward = %d, want %d", got.PlatformFeeInYen+got.RewardInYen, tt.feePerHour)
			}
		})
	}
}

func TestParsePlatformFeeRate_Invalid(t *testing.T) {
	for _, rate := range []string{"", "abc", "-0.1", "100.01", "30%"} {
		t.Run(rate, func(t *testing.T) {
			if _, err := ParsePlatformFeeRate(rate); err == nil {
				t.Errorf("expected error for %q", rate)
			}
		})
	}
}
