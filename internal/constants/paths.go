package constants

// DefaultConfigPath is the default path to the config.toml file
const DefaultConfigPath = "./config.toml"

// DefaultStatePath is where the persisted state lives when state.path is unset
const DefaultStatePath = "data/state.json"
