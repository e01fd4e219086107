// Package model はドメインモデルを定義する。
package model

import "time"

// IdentityRequest は本人確認の審査待ち申請を表す。
// ユーザーごとに同時に1件までしか存在しない。
type IdentityRequest struct {
	IdentityRequestID int64
	UserAccountID     int64
	LastName          string
	FirstName         string
	LastNameFurigana  string
	FirstNameFurigana string
	DateOfBirth       time.Time
	Prefecture        string
	City              string
	AddressLine1      string
	AddressLine2      *string
	TelephoneNumber   string
	Image1FileName    string
	Image2FileName    *string
	RequestedAt       time.Time
}

// ImageFileNames は申請に添付された画像ファイル名を返す。
func (r *IdentityRequest) ImageFileNames() []string {
	return imageFileNames(r.Image1FileName, r.Image2FileName)
}

// ToIdentity は申請内容から確定済みの本人情報を生成する。
func (r *IdentityRequest) ToIdentity() *Identity {
	return &Identity{
		UserAccountID:     r.UserAccountID,
		LastName:          r.LastName,
		FirstName:         r.FirstName,
		LastNameFurigana:  r.LastNameFurigana,
		FirstNameFurigana: r.FirstNameFurigana,
		DateOfBirth:       r.DateOfBirth,
		Prefecture:        r.Prefecture,
		City:              r.City,
		AddressLine1:      r.AddressLine1,
		AddressLine2:      r.AddressLine2,
		TelephoneNumber:   r.TelephoneNumber,
	}
}

// Identity は承認済みの本人情報を表す。承認時にのみ作成・上書きされる。
type Identity struct {
	UserAccountID     int64
	LastName          string
	FirstName         string
	LastNameFurigana  string
	FirstNameFurigana string
	DateOfBirth       time.Time
	Prefecture        string
	City              string
	AddressLine1      string
	AddressLine2      *string
	TelephoneNumber   string
}

// ApprovedIdentityRequest は承認された本人確認申請の履歴を表す。
type ApprovedIdentityRequest struct {
	IdentityRequest
	ApprovedAt time.Time
	ApprovedBy string // 承認した管理者のメールアドレス
}

// RejectedIdentityRequest は拒否された本人確認申請の履歴を表す。
type RejectedIdentityRequest struct {
	IdentityRequest
	Reason     string
	RejectedAt time.Time
	RejectedBy string // 拒否した管理者のメールアドレス
}

// ContractType は職務経歴の雇用形態を表す。
type ContractType string

const (
	ContractTypeRegular  ContractType = "regular"
	ContractTypeContract ContractType = "contract"
	ContractTypeOther    ContractType = "other"
)

// CareerRequest は職務経歴の審査待ち申請を表す。
type CareerRequest struct {
	CareerRequestID      int64
	UserAccountID        int64
	CompanyName          string
	DepartmentName       *string
	Office               *string
	CareerStartDate      time.Time
	CareerEndDate        *time.Time
	ContractType         ContractType
	Profession           *string
	AnnualIncomeInManYen *int32
	IsManager            bool
	PositionName         *string
	IsNewGraduate        bool
	Note                 *string
	Image1FileName       string
	Image2FileName       *string
	RequestedAt          time.Time
}

// ImageFileNames は申請に添付された画像ファイル名を返す。
func (r *CareerRequest) ImageFileNames() []string {
	return imageFileNames(r.Image1FileName, r.Image2FileName)
}

// ToCareer は申請内容から確定済みの職務経歴を生成する。CareerIDは採番前のため0。
func (r *CareerRequest) ToCareer() *Career {
	return &Career{
		UserAccountID:        r.UserAccountID,
		CompanyName:          r.CompanyName,
		DepartmentName:       r.DepartmentName,
		Office:               r.Office,
		CareerStartDate:      r.CareerStartDate,
		CareerEndDate:        r.CareerEndDate,
		ContractType:         r.ContractType,
		Profession:           r.Profession,
		AnnualIncomeInManYen: r.AnnualIncomeInManYen,
		IsManager:            r.IsManager,
		PositionName:         r.PositionName,
		IsNewGraduate:        r.IsNewGraduate,
		Note:                 r.Note,
	}
}

// Career は承認済みの職務経歴を表す。
type Career struct {
	CareerID             int64
	UserAccountID        int64
	CompanyName          string
	DepartmentName       *string
	Office               *string
	CareerStartDate      time.Time
	CareerEndDate        *time.Time
	ContractType         ContractType
	Profession           *string
	AnnualIncomeInManYen *int32
	IsManager            bool
	PositionName         *string
	IsNewGraduate        bool
	Note                 *string
}

// ApprovedCareerRequest は承認された職務経歴申請の履歴を表す。
type ApprovedCareerRequest struct {
	CareerRequest
	ApprovedAt time.Time
	ApprovedBy string
}

// RejectedCareerRequest は拒否された職務経歴申請の履歴を表す。
type RejectedCareerRequest struct {
	CareerRequest
	Reason     string
	RejectedAt time.Time
	RejectedBy string
}

func imageFileNames(image1 string, image2 *string) []string {
	names := []string{image1}
	if image2 != nil && *image2 != "" {
		names = append(names, *image2)
	}
	return names
}
