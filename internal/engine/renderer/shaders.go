package renderer

// MaxLights is the number of lights the shader evaluates; extra lights are ignored.
const MaxLights = 8

const vertexShaderSource = `#version 410 core
layout (location = 0) in vec3 aPosition;
layout (location = 1) in vec3 aNormal;

uniform mat4 uModel;
uniform mat4 uNormalMatrix;
uniform mat4 uView;
uniform mat4 uProjection;

out vec3 vWorldPos;
out vec3 vNormal;

void main() {
    vec4 world = uModel * vec4(aPosition, 1.0);
    vWorldPos = world.xyz;
    vNormal = mat3(uNormalMatrix) * aNormal;
    gl_Position = uProjection * uView * world;
}
`

// Light types match scene.LightType: 0 area, 1 point, 2 sun.
const fragmentShaderSource = `#version 410 core
#define MAX_LIGHTS 8
#define PI 3.14159265

in vec3 vWorldPos;
in vec3 vNormal;

uniform vec4 uAlbedo;
uniform float uSpecular;
uniform float uRoughness;
uniform float uExposure;
uniform vec3 uCameraPos;

uniform int uLightCount;
uniform int uLightType[MAX_LIGHTS];
uniform vec3 uLightPos[MAX_LIGHTS];
uniform vec3 uLightDir[MAX_LIGHTS];
uniform vec3 uLightPower[MAX_LIGHTS];

out vec4 FragColor;

vec3 toSRGB(vec3 c) {
    c = clamp(c, 0.0, 1.0);
    return mix(c * 12.92, 1.055 * pow(c, vec3(1.0 / 2.4)) - 0.055, step(0.0031308, c));
}

void main() {
    vec3 n = normalize(vNormal);
    if (!gl_FrontFacing) {
        n = -n;
    }
    vec3 v = normalize(uCameraPos - vWorldPos);
    float shininess = mix(256.0, 2.0, clamp(uRoughness, 0.0, 1.0));

    vec3 radiance = vec3(0.0);
    for (int i = 0; i < uLightCount; i++) {
        vec3 l;
        vec3 irradiance;
        if (uLightType[i] == 2) {
            l = -normalize(uLightDir[i]);
            irradiance = uLightPower[i];
        } else {
            vec3 d = uLightPos[i] - vWorldPos;
            float dist2 = max(dot(d, d), 1e-4);
            l = d / sqrt(dist2);
            if (uLightType[i] == 0) {
                float facing = max(dot(normalize(uLightDir[i]), -l), 0.0);
                irradiance = uLightPower[i] * facing / (PI * dist2);
            } else {
                irradiance = uLightPower[i] / (4.0 * PI * dist2);
            }
        }

        float ndl = max(dot(n, l), 0.0);
        vec3 h = normalize(l + v);
        float spec = uSpecular * pow(max(dot(n, h), 0.0), shininess) * (shininess + 8.0) / (8.0 * PI);
        radiance += (uAlbedo.rgb / PI + spec) * irradiance * ndl;
    }

    vec3 color = radiance * exp2(uExposure);
    FragColor = vec4(toSRGB(color), uAlbedo.a);
}
`
