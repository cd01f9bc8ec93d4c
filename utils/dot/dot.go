package dot

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/goccy/go-graphviz"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// location of dot executable, used when the graphviz library fails to
// render a graph. It's usually at: /usr/bin/dot
var dotExe string

func basePath(outfname string) string {
	if outfname == "" {
		return filepath.Join(os.TempDir(), "dfa_export.")
	}
	return outfname + "."
}

// dotToImageExe renders the graph with the 'dot' utility, returning the filepath
func dotToImageExe(outfname string, format string, dot []byte) (string, error) {
	if dotExe == "" {
		dot, err := exec.LookPath("dot")
		if err != nil {
			return "", fmt.Errorf("unable to find program 'dot', please install it or check your PATH: %w", err)
		}
		dotExe = dot
	}

	img := basePath(outfname) + format
	cmd := exec.Command(dotExe, fmt.Sprintf("-T%s", format), "-o", img)
	cmd.Stdin = bytes.NewReader(dot)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("command '%v': %v\n%v", cmd, err, stderr.String())
	}
	return img, nil
}

// DotToImage stores the graph at <outfname>.dot and renders it in the given
// format, returning the path of the image.
func DotToImage(outfname string, format string, dot []byte) (string, error) {
	dotpath := basePath(outfname) + "dot"
	if err := os.WriteFile(dotpath, dot, 0644); err != nil {
		return "", err
	}
	log.Printf("Exported dot graph to %s\n", dotpath)

	img, err := dotToImageGraphviz(outfname, format, dot)
	if err != nil {
		log.Printf("Rendering with graphviz failed (%v), falling back to dot", err)
		return dotToImageExe(outfname, format, dot)
	}
	return img, nil
}

func dotToImageGraphviz(outfname string, format string, dot []byte) (img string, err error) {
	g := graphviz.New()
	defer g.Close()

	graph, err := graphviz.ParseBytes(dot)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := graph.Close(); err == nil {
			err = cerr
		}
	}()

	img = basePath(outfname) + format
	if err := g.RenderFilename(graph, graphviz.Format(format), img); err != nil {
		return "", err
	}
	return img, nil
}

const tmplCluster = `{{define "cluster" -}}
	{{printf "subgraph %q {" .}}
		{{.Prefix}}
		{{printf "%s" .Attrs.Lines}}
		{{range .Nodes}}
		{{template "node" .}}
		{{- end}}
		{{range .Clusters}}
		{{template "cluster" .}}
		{{- end}}
	{{println "}" }}
{{- end}}`

const tmplEdge = `{{define "edge" -}}
	{{printf "%q -> %q [ %s ]" .From .To .Attrs}}
{{- end}}`

const tmplNode = `{{define "node" -}}
	{{printf "%q [ %s ]" .ID .Attrs}}
{{- end}}`

const tmplGraph = `digraph CFG {
	label="{{.Title}}";
	labeljust="l";
	fontname="Arial";
	fontsize="14";
	rankdir="{{or .Options.rankdir "LR"}}";
	bgcolor="lightgray";
	style="solid";
	penwidth="0.5";
	pad="0.0";
	nodesep="{{.Options.nodesep}}";
	remincross="{{or .Options.remincross "true"}}";

	node [shape="ellipse" style="filled" fillcolor="honeydew" fontname="Verdana" penwidth="1.0" margin="0.05,0.0"];
	edge [minlen="{{.Options.minlen}}"]

	{{- range .Clusters}}
	{{template "cluster" .}}
	{{- end}}

	{{range .Nodes}}
	{{template "node" .}}
	{{- end}}

	{{- range .Edges}}
	{{template "edge" .}}
	{{- end}}
}
`

// ==[ type def/func: DotCluster ]===============================================
type DotCluster struct {
	ID       string
	Clusters map[string]*DotCluster
	Nodes    []*DotNode
	Attrs    DotAttrs
	Prefix   string
}

func NewDotCluster(id string) *DotCluster {
	return &DotCluster{
		ID:       id,
		Clusters: make(map[string]*DotCluster),
		Attrs:    make(DotAttrs),
	}
}

func (c *DotCluster) String() string {
	return fmt.Sprintf("cluster_%s", c.ID)
}

func (c *DotCluster) countNodes() int {
	res := len(c.Nodes)

	for _, cluster := range c.Clusters {
		res += cluster.countNodes()
	}

	return res
}

// ==[ type def/func: DotNode    ]===============================================
type DotNode struct {
	ID    string
	Attrs DotAttrs
}

func (n *DotNode) String() string {
	return n.ID
}

// ==[ type def/func: DotEdge    ]===============================================
type DotEdge struct {
	From  *DotNode
	To    *DotNode
	Attrs DotAttrs
}

// ==[ type def/func: DotAttrs   ]===============================================
type DotAttrs map[string]string

func (p DotAttrs) List() []string {
	l := []string{}
	for _, k := range maps.Keys(p) {
		l = append(l, fmt.Sprintf("%s=%q;", k, p[k]))
	}
	slices.Sort(l)
	return l
}

func (p DotAttrs) String() string {
	return strings.Join(p.List(), " ")
}

func (p DotAttrs) Lines() string {
	return strings.Join(p.List(), "\n")
}

// ==[ type def/func: DotGraph   ]===============================================
type DotGraph struct {
	Title    string
	Attrs    DotAttrs
	Clusters []*DotCluster
	Nodes    []*DotNode
	Edges    []*DotEdge
	Options  map[string]string
}

func (g *DotGraph) countNodes() int {
	res := len(g.Nodes)

	for _, cluster := range g.Clusters {
		res += cluster.countNodes()
	}

	return res
}

func (g *DotGraph) WriteDot(w io.Writer) error {
	t := template.New("dot")
	t.Option("missingkey=zero") // Make missing map keys return the zero value of appropriate type
	for _, s := range []string{tmplCluster, tmplNode, tmplEdge, tmplGraph} {
		if _, err := t.Parse(s); err != nil {
			return err
		}
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, g); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func (g *DotGraph) ShowDot() {
	xdot, err := exec.LookPath("xdot")
	if err != nil {
		log.Fatalln("unable to find program 'xdot', please install it or check your PATH")
	}

	f, err := os.CreateTemp("", "dfa.*.dot")
	if err != nil {
		log.Fatalln(err)
	}

	defer os.Remove(f.Name())

	if err := g.WriteDot(f); err != nil {
		f.Close()
		log.Fatalln(err)
	} else if err := f.Close(); err != nil {
		log.Fatalln(err)
	}

	var edgeCount int
	for _, e := range g.Edges {
		if str, ok := e.Attrs["style"]; !(ok && strings.Contains(str, "invis")) {
			edgeCount++
		}
	}

	log.Println("Stored dotgraph at", f.Name())
	log.Printf("Graph has %d nodes and %d edges.\n", g.countNodes(), edgeCount)
	log.Println("Starting xdot...")

	if err := exec.Command(xdot, f.Name()).Run(); err != nil {
		log.Printf("Command finished with error: %v", err)
	}
}
