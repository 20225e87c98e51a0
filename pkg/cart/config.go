package cart

// Config holds cart limits.
type Config struct {
	MaxLineQuantity int `env:"CART_MAX_LINE_QUANTITY" envDefault:"99"`
}

func DefaultConfig() Config {
	return Config{MaxLineQuantity: 99}
}
