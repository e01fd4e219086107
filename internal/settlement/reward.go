package settlement

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	minPlatformFeeRate = decimal.Zero
	maxPlatformFeeRate = decimal.NewFromInt(100)
)

// Reward は相談料の内訳。
type Reward struct {
	PlatformFeeInYen int32
	RewardInYen      int32
}

// ParsePlatformFeeRate はパーセント表記の手数料率（例: "30.0"）を解析する。
// 0以上100以下の10進数でなければエラーを返す。
func ParsePlatformFeeRate(rate string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(rate))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("手数料率の解析に失敗しました: %w", err)
	}
	if d.LessThan(minPlatformFeeRate) || d.GreaterThan(maxPlatformFeeRate) {
		return decimal.Decimal{}, fmt.Errorf("手数料率が範囲外です: %s", rate)
	}
	return d, nil
}

// CalculateReward は相談料からプラットフォーム手数料とコンサルタント報酬を計算する。
// 手数料は 相談料 × 手数料率 / 100 の小数点以下を切り捨てた額で、報酬は相談料から手数料を引いた額。
// 振込手数料はプラットフォームが負担するため報酬からは差し引かない。
func CalculateReward(feePerHourInYen int32, platformFeeRate decimal.Decimal) Reward {
	fee := decimal.NewFromInt32(feePerHourInYen)
	platformFee := fee.Mul(platformFeeRate).Shift(-2).Truncate(0)
	return Reward{
		PlatformFeeInYen: int32(platformFee.IntPart()),
		RewardInYen:      int32(fee.Sub(platformFee).IntPart()),
	}
}
