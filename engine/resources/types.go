package resources

import "github.com/spaghettifunk/anima/engine/math"

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	ResourceTypeNone ResourceType = iota
	/** @brief ccmd script source, compiled on load. */
	ResourceTypeScript
	/** @brief Cooked ccmd bytecode. */
	ResourceTypeBytecode
	/** @brief Material setup script, compiled on load. */
	ResourceTypeMaterial
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeScript:
		return "script"
	case ResourceTypeBytecode:
		return "bytecode"
	case ResourceTypeMaterial:
		return "material"
	default:
		return "none"
	}
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief Unique id handed out when the resource is loaded. */
	ID string
	/** @brief The name of the resource, the file name without extension. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	Type     ResourceType
	/** @brief The size of the resource data in bytes. */
	DataSize uint64
	/** @brief Compiled ccmd bytecode. */
	Data []byte
}

/** @brief The name of the default material. */
const DefaultMaterialName string = "default"

/**
 * @brief Material configuration, produced by running a material
 * setup script.
 */
type MaterialConfig struct {
	/** @brief The name of the material. */
	Name string
	/** @brief The material type. */
	ShaderName string
	/** @brief Indicates if the material should be automatically released when no references to it remain. */
	AutoRelease bool
	/** @brief The diffuse colour of the material. */
	DiffuseColour math.Vec4
	/** @brief The shininess of the material. */
	Shininess float32
	/** @brief The diffuse map name. */
	DiffuseMapName string
	/** @brief The specular map name. */
	SpecularMapName string
	/** @brief The normal map name. */
	NormalMapName string
}

/**
 * @brief A material, which represents various properties
 * of a surface in the world such as texture, colour,
 * bumpiness, shininess and more.
 */
type Material struct {
	/** @brief The material id. */
	ID uint32
	/** @brief The material generation. Incremented every time the material is changed. */
	Generation uint32
	Config     MaterialConfig
	/** @brief Live references to this material. */
	ReferenceCount uint64
}
