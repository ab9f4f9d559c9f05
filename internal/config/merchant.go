package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// MerchantProfile is the issuing business printed on every receipt.
type MerchantProfile struct {
	Name           string   `mapstructure:"name"`
	AddressLines   []string `mapstructure:"addressLines"`
	Phone          string   `mapstructure:"phone"`
	Email          string   `mapstructure:"email"`
	TaxNumber      string   `mapstructure:"taxNumber"`
	TaxLabel       string   `mapstructure:"taxLabel"`
	CurrencySymbol string   `mapstructure:"currencySymbol"`
	PaymentLines   []string `mapstructure:"paymentLines"`
	Footer         string   `mapstructure:"footer"`
	DefaultTerms   string   `mapstructure:"defaultTerms"`
	DefaultNote    string   `mapstructure:"defaultNote"`
}

func DefaultMerchantProfile() MerchantProfile {
	return MerchantProfile{
		Name: "TIMBER 4 U CC",
		AddressLines: []string{
			"14 Lekkerwater Road",
			"Sunnydale, Noordhoek",
			"Western Cape 7975 ZA",
		},
		Phone:          "+10217855006",
		Email:          "info@realkey.co.za",
		TaxNumber:      "4910248089",
		TaxLabel:       "VAT",
		CurrencySymbol: "R",
		PaymentLines: []string{
			"STD BANK - CT BR",
			"ACC NO: 071 265 430",
			"BR CODE: 051001",
		},
		Footer:       "Thank you for your business!",
		DefaultTerms: "Net 30",
		DefaultNote:  "Thank you for your business.",
	}
}

// MerchantProfileHolder serves the current profile and swaps it when merchant.yml changes.
type MerchantProfileHolder struct {
	current atomic.Value // holds MerchantProfile
}

func NewMerchantProfileHolder(log *zap.Logger) (*MerchantProfileHolder, error) {
	v := viper.New()

	v.SetConfigName("merchant")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/invoicedesk")
	v.AddConfigPath(".")

	v.SetEnvPrefix("INVOICEDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setMerchantDefaults(v, DefaultMerchantProfile())

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileFound = false
	}

	cfg, err := decodeMerchantProfile(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticMerchantProfileHolder(cfg)
	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeMerchantProfile(v)
		if err != nil {
			log.Warn("merchant profile reload ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("merchant profile reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// NewStaticMerchantProfileHolder wraps a fixed profile, used by tests and previews.
func NewStaticMerchantProfileHolder(profile MerchantProfile) *MerchantProfileHolder {
	holder := &MerchantProfileHolder{}
	holder.current.Store(profile)
	return holder
}

func (h *MerchantProfileHolder) Get() MerchantProfile {
	return h.current.Load().(MerchantProfile)
}

func setMerchantDefaults(v *viper.Viper, d MerchantProfile) {
	v.SetDefault("merchant.name", d.Name)
	v.SetDefault("merchant.addressLines", d.AddressLines)
	v.SetDefault("merchant.phone", d.Phone)
	v.SetDefault("merchant.email", d.Email)
	v.SetDefault("merchant.taxNumber", d.TaxNumber)
	v.SetDefault("merchant.taxLabel", d.TaxLabel)
	v.SetDefault("merchant.currencySymbol", d.CurrencySymbol)
	v.SetDefault("merchant.paymentLines", d.PaymentLines)
	v.SetDefault("merchant.footer", d.Footer)
	v.SetDefault("merchant.defaultTerms", d.DefaultTerms)
	v.SetDefault("merchant.defaultNote", d.DefaultNote)
}

func decodeMerchantProfile(v *viper.Viper) (MerchantProfile, error) {
	// Unmarshal (not UnmarshalKey) so file values merge over per-key defaults.
	var wrapper struct {
		Merchant MerchantProfile `mapstructure:"merchant"`
	}
	if err := v.Unmarshal(&wrapper); err != nil {
		return MerchantProfile{}, err
	}
	if err := validateMerchantProfile(wrapper.Merchant); err != nil {
		return MerchantProfile{}, err
	}
	return wrapper.Merchant, nil
}

func validateMerchantProfile(cfg MerchantProfile) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return errors.New("merchant.name cannot be empty")
	}
	if strings.TrimSpace(cfg.CurrencySymbol) == "" {
		return errors.New("merchant.currencySymbol cannot be empty")
	}
	return nil
}
