package tabular

// Column headers used across the exchanged files.
const (
	ColID             = "거래ID"
	ColDate           = "결제일자"
	ColApprovalDate   = "승인일자"
	ColMerchant       = "가맹점명"
	ColRawMerchant    = "가맹점명_원본"
	ColAmount         = "이용금액"
	ColCategory       = "사용용도"
	ColConfidence     = "신뢰도"
	ColSource         = "라벨출처"
	ColRationale      = "근거"
	ColFinalCategory  = "최종사용용도"
	ColFinalConf      = "최종신뢰도"
	ColStatus         = "확정방법"
	ColReviewNote     = "검토의견"
	ColConfirmed      = "확정용도"
	ColFeedbackTime   = "피드백일시"
	ColMerchantRegion = "가맹점명/국가명"
)

// Header variants issuers use, in priority order.
var (
	MerchantColumns = []string{ColMerchant, ColMerchantRegion, "상호명", "거래처"}
	DateColumns     = []string{ColDate, ColApprovalDate, "거래일자", "사용일자", "일자"}
	AmountColumns   = []string{ColAmount, "거래금액", "사용금액", "청구금액"}
)
