package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/mtlprog/bienes/internal/domain"
)

// LoadCompany reads a company profile from a YAML file and validates it.
// The CUIT is normalized to its eleven digits.
func LoadCompany(path string) (domain.Company, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return domain.Company{}, fmt.Errorf("reading company file %s: %w", path, err)
	}

	var c domain.Company
	if err := v.Unmarshal(&c); err != nil {
		return domain.Company{}, fmt.Errorf("decoding company file %s: %w", path, err)
	}
	c.CUIT = domain.NormalizeCUIT(c.CUIT)

	if err := c.Validate(); err != nil {
		return domain.Company{}, fmt.Errorf("company file %s: %w", path, err)
	}
	return c, nil
}
