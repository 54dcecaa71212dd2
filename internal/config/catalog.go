package config

// defaultSubreddits spans general humor and cryptocurrency communities.
var defaultSubreddits = []string{
	// General meme subreddits
	"funny", "memes", "dankmemes", "wholesomememes", "PrequelMemes",
	"Animemes", "TikTokCringe", "MemeEconomy", "ProgrammerHumor", "HistoryMemes",
	"AdviceAnimals", "me_irl", "ComedyCemetery", "terriblefacebookmemes", "aigeneratedmemes",

	// Cryptocurrency and blockchain subreddits
	"CryptoCurrency", "Bitcoin", "dogecoin", "ethtrader", "CryptoMoonShots",
	"ethereum", "CryptoMarkets", "btc", "BitcoinBeginners", "binance",
	"CryptoTechnology", "cardano", "SatoshiStreetBets", "NFT", "SHIBArmy",
	"CryptoCurrencies", "litecoin", "Ripple", "cryptocurrencymemes", "Monero",
	"crypto", "Crypto_Currency_News", "CryptocurrencyICO", "opensea",
	"NFTsMarketplace", "solana", "AxieInfinity", "Web3Memes", "cryptomemes",
}

// DefaultCatalog returns a copy of the built-in subreddit catalog.
func DefaultCatalog() []string {
	out := make([]string, len(defaultSubreddits))
	copy(out, defaultSubreddits)
	return out
}

