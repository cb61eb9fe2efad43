package format

import "strings"

const iconBase = "https://cdn.jsdelivr.net/gh/selfhst/icons/png/"

// DefaultIcon is used when neither labels nor the image name suggest one.
const DefaultIcon = iconBase + "docker.png"

// iconLabels are checked in order; the first non-empty value wins.
var iconLabels = []string{
	"icon",
	"icon.url",
	"app.icon",
	"org.opencontainers.image.icon",
	"net.unraid.docker.icon",
	"io.portainer.icon",
}

var imageIcons = []struct {
	needles []string
	icon    string
}{
	{[]string{"nginx"}, "nginx.png"},
	{[]string{"postgres"}, "postgresql.png"},
	{[]string{"mysql", "mariadb"}, "mysql.png"},
	{[]string{"redis"}, "redis.png"},
	{[]string{"mongo"}, "mongodb.png"},
	{[]string{"node"}, "nodejs.png"},
	{[]string{"python"}, "python.png"},
}

// IconURL picks an icon from container labels, then from the image name.
func IconURL(labels map[string]string, image string) string {
	for _, key := range iconLabels {
		if v := strings.TrimSpace(labels[key]); v != "" {
			return v
		}
	}

	image = strings.ToLower(image)
	for _, entry := range imageIcons {
		for _, needle := range entry.needles {
			if strings.Contains(image, needle) {
				return iconBase + entry.icon
			}
		}
	}
	return DefaultIcon
}
