package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/TEENet-io/bridge-mirror/cmd"
	"github.com/TEENet-io/bridge-mirror/logconfig"
)

func main() {
	// Tool to read environment variables
	viper.AutomaticEnv()
	cmd.SetDefaults(viper.GetViper())

	// Accessing an environment variable of configuration file location.
	_config_file := viper.GetString(cmd.ENV_CONFIG_FILE_PATH)
	fmt.Printf("Mirror server configuration file = %s\n", _config_file)

	// See if file exists
	if !cmd.FileExists(_config_file) {
		fmt.Printf("Mirror server configuration file not found: %s\n", _config_file)
		return
	}

	// Read from config file.
	success := initializeViper(_config_file)
	if !success {
		return
	}

	logconfig.ConfigLogger(viper.GetString(cmd.KEY_LOG_LEVEL))

	// Make the configuration
	msc, err := cmd.PrepareMirrorServerConfig(viper.GetViper())
	if err != nil {
		fmt.Printf("Error loading mirror server configuration: %s\n", err)
		return
	}

	fmt.Println("Starting mirror server... press Ctrl+C to kill the server")
	// Start server and block.
	cmd.StartMirrorServerAndWait(msc)
}

func initializeViper(filePath string) bool {
	viper.SetConfigFile(filePath)
	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf("Error reading configuration file, %s", err)
		return false
	}
	return true
}
