package opengl

// Enum is a GLenum value.
type Enum uint32

// OpenGL constants used by the backend.
const (
	NO_ERROR = Enum(0)

	POINTS    = Enum(0x0000)
	LINES     = Enum(0x0001)
	TRIANGLES = Enum(0x0004)

	UNSIGNED_BYTE  = Enum(0x1401)
	UNSIGNED_SHORT = Enum(0x1403)
	FLOAT          = Enum(0x1406)

	ARRAY_BUFFER                 = Enum(0x8892)
	ELEMENT_ARRAY_BUFFER         = Enum(0x8893)
	ARRAY_BUFFER_BINDING         = Enum(0x8894)
	ELEMENT_ARRAY_BUFFER_BINDING = Enum(0x8895)
	VERTEX_ARRAY_BINDING         = Enum(0x85B5)
	STREAM_DRAW                  = Enum(0x88E0)

	VERTEX_SHADER   = Enum(0x8B31)
	FRAGMENT_SHADER = Enum(0x8B30)
	COMPILE_STATUS  = Enum(0x8B81)
	LINK_STATUS     = Enum(0x8B82)
	INFO_LOG_LENGTH = Enum(0x8B84)
	CURRENT_PROGRAM = Enum(0x8B8D)

	TEXTURE_2D         = Enum(0x0DE1)
	TEXTURE0           = Enum(0x84C0)
	ACTIVE_TEXTURE     = Enum(0x84E0)
	TEXTURE_BINDING_2D = Enum(0x8069)
	SAMPLER_BINDING    = Enum(0x8919)
	TEXTURE_MAG_FILTER = Enum(0x2800)
	TEXTURE_MIN_FILTER = Enum(0x2801)
	TEXTURE_WRAP_S     = Enum(0x2802)
	TEXTURE_WRAP_T     = Enum(0x2803)
	LINEAR             = Enum(0x2601)
	REPEAT             = Enum(0x2901)
	RGBA               = Enum(0x1908)
	RGBA8              = Enum(0x8058)
	UNPACK_ALIGNMENT   = Enum(0x0CF5)
	PACK_ALIGNMENT     = Enum(0x0D05)

	BLEND        = Enum(0x0BE2)
	CULL_FACE    = Enum(0x0B44)
	DEPTH_TEST   = Enum(0x0B71)
	STENCIL_TEST = Enum(0x0B90)
	SCISSOR_TEST = Enum(0x0C11)
	SAMPLE_MASK  = Enum(0x8E51)

	BLEND_DST_RGB        = Enum(0x80C8)
	BLEND_SRC_RGB        = Enum(0x80C9)
	BLEND_DST_ALPHA      = Enum(0x80CA)
	BLEND_SRC_ALPHA      = Enum(0x80CB)
	BLEND_EQUATION_RGB   = Enum(0x8009)
	BLEND_EQUATION_ALPHA = Enum(0x883D)

	FUNC_ADD              = Enum(0x8006)
	MIN                   = Enum(0x8007)
	MAX                   = Enum(0x8008)
	FUNC_SUBTRACT         = Enum(0x800A)
	FUNC_REVERSE_SUBTRACT = Enum(0x800B)

	ZERO                     = Enum(0)
	ONE                      = Enum(1)
	SRC_COLOR                = Enum(0x0300)
	ONE_MINUS_SRC_COLOR      = Enum(0x0301)
	SRC_ALPHA                = Enum(0x0302)
	ONE_MINUS_SRC_ALPHA      = Enum(0x0303)
	DST_ALPHA                = Enum(0x0304)
	ONE_MINUS_DST_ALPHA      = Enum(0x0305)
	DST_COLOR                = Enum(0x0306)
	ONE_MINUS_DST_COLOR      = Enum(0x0307)
	SRC_ALPHA_SATURATE       = Enum(0x0308)
	CONSTANT_COLOR           = Enum(0x8001)
	ONE_MINUS_CONSTANT_COLOR = Enum(0x8002)

	CULL_FACE_MODE = Enum(0x0B45)
	FRONT_FACE     = Enum(0x0B46)
	FRONT          = Enum(0x0404)
	BACK           = Enum(0x0405)
	FRONT_AND_BACK = Enum(0x0408)
	CW             = Enum(0x0900)
	CCW            = Enum(0x0901)

	POLYGON_MODE = Enum(0x0B40)
	LINE         = Enum(0x1B01)
	FILL         = Enum(0x1B02)

	COLOR_WRITEMASK = Enum(0x0C23)
	VIEWPORT        = Enum(0x0BA2)
	DEPTH_RANGE     = Enum(0x0B70)
)
