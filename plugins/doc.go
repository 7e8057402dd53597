// Package plugins hosts optional rule packs installed through
// core.Service.InstallPlugin. It contains no runtime code itself.
package plugins
