/* Copyright 2025 Campuslib Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package dirs resolves the XDG directories where campuslib keeps its data
// and configuration files
package dirs

import (
	"os"
	"os/user"
	"path/filepath"

	"github.com/pkg/errors"
)

// AppDirName is the name of the directory created under the XDG directories
const AppDirName = "campuslib"

// The environment variable names for the XDG base directory specification
var (
	envConfigHome = "XDG_CONFIG_HOME"
	envDataHome   = "XDG_DATA_HOME"
)

var (
	// Home is the home directory of the user
	Home string
	// ConfigHome is the directory in which user-specific configurations are written
	ConfigHome string
	// DataHome is the directory in which user-specific data files are written
	DataHome string
)

func init() {
	Reload()
}

// Reload re-reads the environment and recomputes the directories
func Reload() {
	Home = getHomeDir()
	ConfigHome = readPath(envConfigHome, filepath.Join(Home, ".config"))
	DataHome = readPath(envDataHome, filepath.Join(Home, ".local/share"))
}

// DataPath returns the path of the named file inside the campuslib data directory
func DataPath(name string) string {
	return filepath.Join(DataHome, AppDirName, name)
}

// ConfigPath returns the path of the named file inside the campuslib configuration directory
func ConfigPath(name string) string {
	return filepath.Join(ConfigHome, AppDirName, name)
}

func getHomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}

	usr, err := user.Current()
	if err != nil {
		panic(errors.Wrap(err, "getting home dir"))
	}

	return usr.HomeDir
}

func readPath(envName, defaultPath string) string {
	if dir := os.Getenv(envName); dir != "" {
		return dir
	}

	return defaultPath
}
