package config

import (
	"os"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Token   string `toml:"token"`
	Host    string `toml:"host"`
	Port    string `toml:"port"`
	Libonnx string `toml:"libonnx"`

	ModelBaseUrl     string   `toml:"model_base_url"`
	ModelDir         string   `toml:"model_dir"`
	DepthModelName   string   `toml:"depth_model_name"`
	MattingModelName string   `toml:"matting_model_name"`
	RefinerModelName string   `toml:"refiner_model_name"`
	Devices          []string `toml:"devices"`

	StudioApiKey  string `toml:"studio_api_key"`
	StudioBaseUrl string `toml:"studio_base_url"`
}

var (
	cfg = Config{
		Token:            "",
		Host:             "0.0.0.0",
		Port:             "8000",
		ModelBaseUrl:     "https://huggingface.co/withoutbg/snap/resolve/main",
		ModelDir:         "models",
		DepthModelName:   "depth_anything_v2_vits_slim.onnx",
		MattingModelName: "snap_matting_0.1.0.onnx",
		RefinerModelName: "snap_refiner_0.1.0.onnx",
		Devices:          []string{"cuda", "cpu"},
		StudioBaseUrl:    "https://api.withoutbg.com",
	}
	loadOnce sync.Once
)

func C() Config {
	loadOnce.Do(func() {
		if _, err := os.Stat("config.toml"); err == nil {
			data, err := os.ReadFile("config.toml")
			if err != nil {
				panic(err)
			}
			if err := toml.Unmarshal(data, &cfg); err != nil {
				panic(err)
			}
		}
	})
	return cfg
}
