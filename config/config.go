package config

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/azer/logger"
	"github.com/gobuffalo/packr/v2"
	"github.com/spf13/viper"
)

var log = logger.New("config")

var (
	appDir    = appDataDir()
	configBox = packr.New("defaults", "./defaults")
)

func init() {
	logger.SetOutput(os.Stdout)

	loadDefaults()

	err := os.MkdirAll(filepath.Join(appDir, "certs"), os.ModePerm)
	if err != nil {
		panic(err)
	}

	b, err := configBox.Find("config.example.yml")
	if err != nil {
		panic(err)
	}
	err = viper.ReadConfig(bytes.NewReader(b))
	if err != nil {
		panic(err)
	}

	_, err = os.Stat(filepath.Join(appDir, "config.yml"))
	if os.IsNotExist(err) {
		log.Info("config.yml not found, writing default config file")
		err = os.WriteFile(filepath.Join(appDir, "config.yml"), b, os.ModePerm)
		if err != nil {
			panic(err)
		}
	} else if err != nil {
		panic(err)
	}

	viper.SetConfigName("config")
	viper.AddConfigPath(appDir)
	viper.AddConfigPath(".")
	err = viper.ReadInConfig()
	if err != nil {
		log.Error("error loading config file, utilizing defaults", logger.Attrs{"err": err})
	}
}

func appDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".pubchemd"
	}
	return filepath.Join(dir, "pubchemd")
}

func loadDefaults() {
	// Elastic defaults
	viper.SetDefault("elastic.host", "http://127.0.0.1:9200")
	viper.SetDefault("elastic.useCert", false)
	viper.SetDefault("elastic.certFile", filepath.Join(appDir, "certs/pubchemd.pem"))
	viper.SetDefault("elastic.certKey", filepath.Join(appDir, "certs/pubchemd.key"))
	viper.SetDefault("elastic.certRoot", filepath.Join(appDir, "certs/root-ca.pem"))

	// PubChem mirror defaults
	viper.SetDefault("pubchem.ftp.host", "ftp.ncbi.nlm.nih.gov:21")
	viper.SetDefault("pubchem.ftp.user", "anonymous")
	viper.SetDefault("pubchem.ftp.pass", "anonymous@domain.com")
	viper.SetDefault("pubchem.ftp.dir", "pubchem/Compound/CURRENT-Full/SDF")
	viper.SetDefault("pubchem.dataDir", filepath.Join(appDir, "pubchem_dir"))

	// Index defaults
	viper.SetDefault("pubchem.index.prefix", "")

	// HttpApi defaults
	viper.SetDefault("pubchem.api.listen", "127.0.0.1:1606")
	viper.SetDefault("pubchem.api.enabled", false)

	// Exclusion list defaults
	viper.SetDefault("pubchem.exclude.bundled", []string{})
	viper.SetDefault("pubchem.exclude.remote.refresh", "false")
}

// IndexPrefix returns the operator configured index name prefix, empty
// for the stock deployment.
func IndexPrefix() string {
	return viper.GetString("pubchem.index.prefix")
}

func SetIndexPrefix(prefix string) {
	viper.Set("pubchem.index.prefix", prefix)
}

func GetFilePath(key string) string {
	v := viper.GetString(key)
	if filepath.IsAbs(v) {
		return v
	}
	return filepath.Join(appDir, v)
}
