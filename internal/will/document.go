// Package will defines the digital estate will document and its sections.
package will

import "time"

type Status string

const (
	StatusDraft     Status = "draft"
	StatusCompleted Status = "completed"
	StatusPaid      Status = "paid"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusCompleted, StatusPaid:
		return true
	}
	return false
}

// Document is the in-progress will. Sections stay nil until the user first
// touches the corresponding step.
type Document struct {
	ID            string         `json:"id,omitempty"`
	UserID        string         `json:"userId,omitempty"`
	PersonalInfo  *PersonalInfo  `json:"personalInfo,omitempty"`
	DigitalAssets *DigitalAssets `json:"digitalAssets,omitempty"`
	CryptoSetup   *CryptoSetup   `json:"cryptoSetup,omitempty"`
	Beneficiaries *Beneficiaries `json:"beneficiaries,omitempty"`
	Status        Status         `json:"status"`
	CreatedAt     *time.Time     `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time     `json:"updatedAt,omitempty"`
}

type PersonalInfo struct {
	FullName    string   `json:"fullName"`
	State       string   `json:"state"`
	DateOfBirth string   `json:"dateOfBirth,omitempty"`
	Address     *Address `json:"address,omitempty"`
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	ZipCode string `json:"zipCode"`
}

// AssetItem is one itemised entry of a digital asset list. Not every field
// applies to every list: crypto assets use Type/Value, accounts use
// Platform/Account.
type AssetItem struct {
	Type     string `json:"type,omitempty"`
	Platform string `json:"platform,omitempty"`
	Account  string `json:"account,omitempty"`
	Value    string `json:"value,omitempty"`
}

type DigitalAssets struct {
	SelectedCategories []string    `json:"selectedCategories"`
	CryptoAssets       []AssetItem `json:"cryptoAssets,omitempty"`
	CloudStorage       []AssetItem `json:"cloudStorage,omitempty"`
	SocialMedia        []AssetItem `json:"socialMedia,omitempty"`
	DigitalBusiness    []AssetItem `json:"digitalBusiness,omitempty"`
}

// HasCategory reports whether id is among the selected categories.
func (d *DigitalAssets) HasCategory(id string) bool {
	if d == nil {
		return false
	}
	for _, c := range d.SelectedCategories {
		if c == id {
			return true
		}
	}
	return false
}

// Toggle adds id when absent and removes it when present.
func (d *DigitalAssets) Toggle(id string) {
	for i, c := range d.SelectedCategories {
		if c == id {
			d.SelectedCategories = append(d.SelectedCategories[:i:i], d.SelectedCategories[i+1:]...)
			return
		}
	}
	d.SelectedCategories = append(d.SelectedCategories, id)
}

type WalletType string

const (
	WalletHardware WalletType = "hardware"
	WalletSoftware WalletType = "software"
	WalletExchange WalletType = "exchange"
	WalletPaper    WalletType = "paper"
)

func (t WalletType) Valid() bool {
	switch t {
	case WalletHardware, WalletSoftware, WalletExchange, WalletPaper:
		return true
	}
	return false
}

type AccessInstructions struct {
	RecoveryPhraseLocation string `json:"recoveryPhraseLocation,omitempty"`
	HardwareAccess         string `json:"hardwareWalletAccess,omitempty"`
	ExchangeDetails        string `json:"exchangeAccountDetails,omitempty"`
	SpecialInstructions    string `json:"specialInstructions,omitempty"`
}

type Wallet struct {
	Type           WalletType         `json:"type"`
	Currency       string             `json:"cryptocurrency"`
	EstimatedValue string             `json:"estimatedValue,omitempty"`
	Instructions   AccessInstructions `json:"accessInstructions"`
}

type CryptoSetup struct {
	Wallets []Wallet `json:"wallets"`
}

type Beneficiary struct {
	Name         string  `json:"name"`
	Relationship string  `json:"relationship"`
	Email        string  `json:"email"`
	Phone        string  `json:"phone,omitempty"`
	Percentage   float64 `json:"percentage"`
}

type ExecutorType string

const (
	ExecutorSameAsPrimary ExecutorType = "same_as_primary"
	ExecutorDifferent     ExecutorType = "different"
)

type Executor struct {
	Type           ExecutorType `json:"type"`
	Name           string       `json:"name,omitempty"`
	Email          string       `json:"email,omitempty"`
	Phone          string       `json:"phone,omitempty"`
	TechExperience string       `json:"techExperience,omitempty"`
}

type EmergencyAccess struct {
	WaitingPeriod       string   `json:"waitingPeriod"`
	VerificationMethods []string `json:"verificationMethods,omitempty"`
}

type Beneficiaries struct {
	Primary         Beneficiary     `json:"primaryBeneficiary"`
	Secondary       *Beneficiary    `json:"secondaryBeneficiary,omitempty"`
	Executor        Executor        `json:"digitalExecutor"`
	EmergencyAccess EmergencyAccess `json:"emergencyAccess"`
}

// NewDocument returns an empty draft.
func NewDocument() Document {
	return Document{Status: StatusDraft}
}

// Clone returns a deep copy so snapshots never alias live store state.
func (d Document) Clone() Document {
	out := d
	if d.PersonalInfo != nil {
		p := *d.PersonalInfo
		if p.Address != nil {
			a := *p.Address
			p.Address = &a
		}
		out.PersonalInfo = &p
	}
	if d.DigitalAssets != nil {
		a := *d.DigitalAssets
		a.SelectedCategories = cloneStrings(a.SelectedCategories)
		a.CryptoAssets = cloneItems(a.CryptoAssets)
		a.CloudStorage = cloneItems(a.CloudStorage)
		a.SocialMedia = cloneItems(a.SocialMedia)
		a.DigitalBusiness = cloneItems(a.DigitalBusiness)
		out.DigitalAssets = &a
	}
	if d.CryptoSetup != nil {
		c := CryptoSetup{}
		if d.CryptoSetup.Wallets != nil {
			c.Wallets = append([]Wallet(nil), d.CryptoSetup.Wallets...)
		}
		out.CryptoSetup = &c
	}
	if d.Beneficiaries != nil {
		b := d.Beneficiaries.Clone()
		out.Beneficiaries = &b
	}
	if d.CreatedAt != nil {
		t := *d.CreatedAt
		out.CreatedAt = &t
	}
	if d.UpdatedAt != nil {
		t := *d.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

func (b Beneficiaries) Clone() Beneficiaries {
	out := b
	if b.Secondary != nil {
		s := *b.Secondary
		out.Secondary = &s
	}
	out.EmergencyAccess.VerificationMethods = cloneStrings(b.EmergencyAccess.VerificationMethods)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneItems(in []AssetItem) []AssetItem {
	if in == nil {
		return nil
	}
	return append([]AssetItem(nil), in...)
}
